package repository

import (
	"context"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

// hasDues is a derived field so pending-dues listings can be filtered in the store.
const hasDuesField = "hasDues"

type UserRepository struct {
	store ports.DocumentStore
}

func NewUserRepository(store ports.DocumentStore) *UserRepository {
	return &UserRepository{store: store}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	return createOne(ctx, r.store, ports.CollectionUsers, user.ID, user, map[string]interface{}{
		hasDuesField: user.PendingAmount > 0,
	})
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return getOne[domain.User](ctx, r.store, ports.CollectionUsers, id)
}

func (r *UserRepository) ListUsers(ctx context.Context, params domain.ListParams) (*domain.Page[domain.User], error) {
	return listPage[domain.User](ctx, r.store, ports.CollectionUsers, listQuery(params, "userName", "userStatus"))
}

func (r *UserRepository) ListAllUsers(ctx context.Context) ([]*domain.User, error) {
	return listAll[domain.User](ctx, r.store, ports.CollectionUsers, ports.Query{})
}

func (r *UserRepository) ListUsersWithDues(ctx context.Context, limit, offset int) (*domain.Page[domain.User], error) {
	return listPage[domain.User](ctx, r.store, ports.CollectionUsers, ports.Query{
		Filters:   []ports.Filter{ports.Equal(hasDuesField, true)},
		OrderDesc: "pendingAmount",
		Limit:     limit,
		Offset:    offset,
	})
}

func (r *UserRepository) CountUsersByCompany(ctx context.Context, companyID string) (int, error) {
	return count(ctx, r.store, ports.CollectionUsers, ports.Equal("companyId", companyID))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, profile domain.UserProfile, expectedVersion int64) (*domain.User, error) {
	return patchOne[domain.User](ctx, r.store, ports.CollectionUsers, id, map[string]interface{}{
		"userName":  profile.UserName,
		"userPhone": profile.UserPhone,
		"companyId": profile.CompanyID,
	}, expectedVersion)
}

func (r *UserRepository) SetAssignment(ctx context.Context, id string, a domain.Assignment, expectedVersion int64) (*domain.User, error) {
	return patchOne[domain.User](ctx, r.store, ports.CollectionUsers, id, map[string]interface{}{
		"userStatus":     a.UserStatus,
		"bikeId":         a.BikeID,
		"batteryId":      a.BatteryID,
		"oldBatteryId":   a.OldBatteryID,
		"totalSwapCount": a.TotalSwapCount,
		"assignedAt":     a.AssignedAt,
		"returnedAt":     a.ReturnedAt,
	}, expectedVersion)
}

func (r *UserRepository) SetBlocked(ctx context.Context, id string, blocked bool, expectedVersion int64) (*domain.User, error) {
	return patchOne[domain.User](ctx, r.store, ports.CollectionUsers, id, map[string]interface{}{
		"isBlocked": blocked,
	}, expectedVersion)
}

func (r *UserRepository) SetCall(ctx context.Context, id string, status domain.CallStatus, note string, expectedVersion int64) (*domain.User, error) {
	return patchOne[domain.User](ctx, r.store, ports.CollectionUsers, id, map[string]interface{}{
		"callStatus": status,
		"callNote":   note,
	}, expectedVersion)
}

func (r *UserRepository) SetPendingAmount(ctx context.Context, id string, amount int64, expectedVersion int64) (*domain.User, error) {
	return patchOne[domain.User](ctx, r.store, ports.CollectionUsers, id, map[string]interface{}{
		"pendingAmount": amount,
		hasDuesField:    amount > 0,
	}, expectedVersion)
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	return deleteOne(ctx, r.store, ports.CollectionUsers, id)
}
