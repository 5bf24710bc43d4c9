package reference

import "context"

// Repository локальный кэш справочных данных
type Repository interface {
	ReplaceLocations(ctx context.Context, locations []Location) error
	ReplaceUnits(ctx context.Context, units []Unit) error
	ListLocations(ctx context.Context, filter LocationFilter) ([]Location, error)
	ListUnits(ctx context.Context, filter UnitFilter) ([]Unit, error)
}
