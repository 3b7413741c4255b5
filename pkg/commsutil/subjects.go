package commsutil

import "fmt"

// Default COMMS subjects.
const (
	SubjectTask        = "condo.task.v1"
	SubjectRoute       = "condo.route.v1"
	SubjectStatus      = "condo.status.v1"
	SubjectChangeEvent = "condo.changed"
)

// BuildChangeSubject builds a granular change event subject.
func BuildChangeSubject(tenantID, handlerType string) string {
	return fmt.Sprintf("condo.changed.%s.%s", tenantID, handlerType)
}
