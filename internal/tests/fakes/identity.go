// Package fakes provides in-memory repositories and adapters for tests.
package fakes

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopscript/apiserver/internal/store"
	"github.com/shopscript/apiserver/types"
)

// AdminRepository is an in-memory admin table.
type AdminRepository struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]types.Admin

	// Err, when set, is returned by every read.
	Err error
}

func NewAdminRepository() *AdminRepository {
	return &AdminRepository{rows: make(map[int]types.Admin)}
}

func (r *AdminRepository) GetByID(_ context.Context, id int) (types.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return types.Admin{}, r.Err
	}
	admin, ok := r.rows[id]
	if !ok {
		return types.Admin{}, store.ErrNotFound
	}
	return admin, nil
}

func (r *AdminRepository) GetByUsername(_ context.Context, username string) (types.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return types.Admin{}, r.Err
	}
	for _, admin := range r.rows {
		if admin.Username == username {
			return admin, nil
		}
	}
	return types.Admin{}, store.ErrNotFound
}

func (r *AdminRepository) Create(_ context.Context, admin types.Admin) (types.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Username == admin.Username {
			return types.Admin{}, store.ErrConflict
		}
	}
	r.nextID++
	now := time.Now().UTC()
	admin.ID = r.nextID
	admin.CreatedAt = now
	admin.UpdatedAt = now
	r.rows[admin.ID] = admin
	return admin, nil
}

func (r *AdminRepository) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	admin.PasswordHash = passwordHash
	admin.UpdatedAt = time.Now().UTC()
	r.rows[id] = admin
	return nil
}

// UserRepository is an in-memory user table with a unique username index.
type UserRepository struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]types.User

	// Err, when set, is returned by every read.
	Err error
}

func NewUserRepository() *UserRepository {
	return &UserRepository{rows: make(map[int]types.User)}
}

func (r *UserRepository) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return types.User{}, r.Err
	}
	user, ok := r.rows[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByMobile(_ context.Context, mobile string) (types.User, error) {
	mobile = strings.TrimSpace(mobile)
	return r.find(func(u types.User) bool { return mobile != "" && u.Mobile == mobile })
}

func (r *UserRepository) List(_ context.Context) ([]types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	users := make([]types.User, 0, len(r.rows))
	for _, user := range r.rows {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *UserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Username == user.Username {
			return types.User{}, store.ErrConflict
		}
	}
	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.rows[user.ID] = user
	return user, nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	r.rows[id] = user
	return nil
}

func (r *UserRepository) find(match func(types.User) bool) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return types.User{}, r.Err
	}
	for _, user := range r.rows {
		if match(user) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

// PlainHasher stores passwords with a fixed prefix. It keeps service tests fast.
type PlainHasher struct{}

func (PlainHasher) Hash(plain string) (string, error) {
	return "plain:" + plain, nil
}

func (PlainHasher) Verify(plain, hash string) (bool, error) {
	return hash == "plain:"+plain, nil
}
