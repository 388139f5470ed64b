package auth

import (
	"fmt"
	"strings"
)

type Role string

const (
	Agent       Role = "agent"
	Coordinator Role = "coordinator"
	Manager     Role = "manager"
	Admin       Role = "admin"
)

// AllRoles is ordered from the least to the most privileged role.
var AllRoles = []Role{Agent, Coordinator, Manager, Admin}

// ParseRole accepts the role codes and, for data imported from the old system, their Portuguese names.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agent", "agente":
		return Agent, nil
	case "coordinator", "coordenador":
		return Coordinator, nil
	case "manager", "gerente":
		return Manager, nil
	case "admin", "administrador":
		return Admin, nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

func (r Role) Valid() bool {
	switch r {
	case Agent, Coordinator, Manager, Admin:
		return true
	default:
		return false
	}
}

// Label returns the name which is displayed to users.
func (r Role) Label() string {
	switch r {
	case Agent:
		return "Agente"
	case Coordinator:
		return "Coordenador"
	case Manager:
		return "Gerente"
	case Admin:
		return "Administrador"
	}
	return "unknown"
}

func (r Role) String() string {
	return string(r)
}
