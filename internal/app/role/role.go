package role

type Role int

const (
	Client Role = iota // 0
	Admin              // 1
)

func (r Role) String() string {
	switch r {
	case Admin:
		return "admin"
	default:
		return "client"
	}
}

// Valid сообщает, известна ли роль
func (r Role) Valid() bool {
	return r == Client || r == Admin
}
