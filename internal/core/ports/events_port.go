package ports

import "context"

const (
	SubjectAssignmentCompleted = "fleet.assignment.completed"
	SubjectSwapCompleted       = "fleet.swap.completed"
	SubjectReturnCompleted     = "fleet.return.completed"
	SubjectReconcileCompleted  = "fleet.reconcile.completed"
)

type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
	Close() error
}
