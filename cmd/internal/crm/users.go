package crm

import "context"

// Users wraps /users.
type Users struct{ d Doer }

// Me returns the authenticated user.
func (u *Users) Me(ctx context.Context) (User, error) {
	var out User
	err := get(ctx, u.d, "/users/me", nil, &out)
	return out, err
}

// List returns every user of the tenant.
func (u *Users) List(ctx context.Context) ([]User, error) {
	var out []User
	err := get(ctx, u.d, "/users", nil, &out)
	return out, err
}

// Get returns one user.
func (u *Users) Get(ctx context.Context, id string) (User, error) {
	var out User
	err := get(ctx, u.d, "/users/"+seg(id), nil, &out)
	return out, err
}

// Create adds a user to the tenant.
func (u *Users) Create(ctx context.Context, in UserCreate) (User, error) {
	var out User
	err := post(ctx, u.d, "/users", in, &out)
	return out, err
}

// Update applies a partial update.
func (u *Users) Update(ctx context.Context, id string, in UserUpdate) (User, error) {
	var out User
	err := patch(ctx, u.d, "/users/"+seg(id), in, &out)
	return out, err
}

// Delete removes a user.
func (u *Users) Delete(ctx context.Context, id string) error {
	return del(ctx, u.d, "/users/"+seg(id))
}

// Activate re-enables a user.
func (u *Users) Activate(ctx context.Context, id string) (User, error) {
	var out User
	err := post(ctx, u.d, "/users/"+seg(id)+"/activate", nil, &out)
	return out, err
}

// Deactivate disables a user without deleting it.
func (u *Users) Deactivate(ctx context.Context, id string) (User, error) {
	var out User
	err := post(ctx, u.d, "/users/"+seg(id)+"/deactivate", nil, &out)
	return out, err
}

// Tenants wraps /tenants.
type Tenants struct{ d Doer }

// Me returns the tenant of the authenticated user.
func (t *Tenants) Me(ctx context.Context) (Tenant, error) {
	var out Tenant
	err := get(ctx, t.d, "/tenants/me", nil, &out)
	return out, err
}

// ProfileUpdate replaces the caller's own profile fields.
type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// PasswordChange is the payload for changing the caller's password.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateProfile replaces the authenticated user's profile.
func (u *Users) UpdateProfile(ctx context.Context, in ProfileUpdate) (User, error) {
	var out User
	err := put(ctx, u.d, "/users/me", in, &out)
	return out, err
}

// ChangePassword changes the authenticated user's password.
func (u *Users) ChangePassword(ctx context.Context, in PasswordChange) error {
	return post(ctx, u.d, "/users/me/change-password", in, nil)
}
