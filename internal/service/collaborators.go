package service

//go:generate mockgen -source=collaborators.go -destination=mocks/collaborators.go -package=mocks

import (
	"context"

	"defense_service/internal/model"
)

// Notifier publishes lifecycle events. Delivery is best effort; a failure
// never undoes the committed transition.
type Notifier interface {
	Notify(ctx context.Context, event model.Event) error
}

// CertificateRenderer produces the act of a passed defense and returns the
// artifact path.
type CertificateRenderer interface {
	Render(ctx context.Context, cert model.Certificate) (string, error)
}
