package machine

import "context"

// Repository provides persistence for machines and groups. Deleting a
// machine deletes its groups.
type Repository interface {
	CreateMachine(ctx context.Context, m *Machine) error
	ListMachines(ctx context.Context) ([]Machine, error)
	DeleteMachine(ctx context.Context, mmm string) error
	CreateGroup(ctx context.Context, g *Group) error
	ListGroups(ctx context.Context, mmm string) ([]Group, error)
	DeleteGroup(ctx context.Context, mmm, gggg string) error
}
