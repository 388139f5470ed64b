package auth

// An Operation is something a user might want to do.
type Operation int

const (
	CreatePatient Operation = iota
	UpdatePatient
	CreateAssessment
	ApproveAssessment
	RejectAssessment
	ExportAssessments
	ManageUsers
)

func (op Operation) String() string {
	switch op {
	case CreatePatient:
		return "create patient"
	case UpdatePatient:
		return "update patient"
	case CreateAssessment:
		return "create assessment"
	case ApproveAssessment:
		return "approve assessment"
	case RejectAssessment:
		return "reject assessment"
	case ExportAssessments:
		return "export assessments"
	case ManageUsers:
		return "manage users"
	}
	return "unknown operation"
}

var reviewers = []Role{Coordinator, Manager, Admin}

// capabilities maps each operation to the roles which may perform it. It is the only place where roles are related to operations.
var capabilities = map[Operation][]Role{
	CreatePatient:     AllRoles,
	UpdatePatient:     AllRoles,
	CreateAssessment:  AllRoles,
	ApproveAssessment: reviewers,
	RejectAssessment:  reviewers,
	ExportAssessments: reviewers,
	ManageUsers:       {Manager, Admin},
}

// Can returns whether the identity may perform the operation. It is false for a nil identity and for unknown operations.
func Can(identity *Identity, op Operation) bool {
	return HasRole(identity, capabilities[op]...)
}
