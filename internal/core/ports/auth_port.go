package ports

import "github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"

type TokenService interface {
	VerifyToken(token string) (*domain.TokenPayload, error)
}
