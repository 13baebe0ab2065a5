package auth

type userIdentity struct {
	user *User
}

// NewIdentityFromUser adapts a stored User to the Identity interface.
func NewIdentityFromUser(user *User) Identity {
	return userIdentity{user: user}
}

func (i userIdentity) ID() string {
	return i.user.ID.String()
}

func (i userIdentity) Username() string {
	return i.user.Username
}

func (i userIdentity) Email() string {
	return i.user.Email
}

func (i userIdentity) Role() string {
	return string(i.user.Role)
}

func (i userIdentity) IsSuperuser() bool {
	return i.user.Superuser
}

type superuserAwareIdentity interface {
	IsSuperuser() bool
}

func identitySuperuser(identity Identity) bool {
	if identity == nil {
		return false
	}

	if su, ok := identity.(superuserAwareIdentity); ok {
		return su.IsSuperuser()
	}

	return false
}
