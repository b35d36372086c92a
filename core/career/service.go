package career

import (
	"github.com/go-playground/validator/v10"
)

// Repositories groups the storage of every record kind.
type Repositories struct {
	Notes               Repository[Note]
	Consultations       Repository[Consultation]
	Applications        Repository[Application]
	Workshops           Repository[Workshop]
	MockInterviews      Repository[MockInterview]
	Documents           Repository[Document]
	EmployerConnections Repository[EmployerConnection]
}

type Service struct {
	Notes               *Collection[Note]
	Consultations       *Collection[Consultation]
	Applications        *Collection[Application]
	Workshops           *Collection[Workshop]
	MockInterviews      *Collection[MockInterview]
	Documents           *Collection[Document]
	EmployerConnections *Collection[EmployerConnection]
}

func NewService(repos Repositories, students StudentFinder, validate *validator.Validate) *Service {
	return &Service{
		Notes:               NewCollection(repos.Notes, students, validate),
		Consultations:       NewCollection(repos.Consultations, students, validate),
		Applications:        NewCollection(repos.Applications, students, validate),
		Workshops:           NewCollection(repos.Workshops, students, validate),
		MockInterviews:      NewCollection(repos.MockInterviews, students, validate),
		Documents:           NewCollection(repos.Documents, students, validate),
		EmployerConnections: NewCollection(repos.EmployerConnections, students, validate),
	}
}
