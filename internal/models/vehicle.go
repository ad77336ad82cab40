package models

// VehicleStatus - код статуса транспортного средства
type VehicleStatus int

// DefaultVehicleStatus присваивается, если статус не передан
const DefaultVehicleStatus VehicleStatus = 1

var allowedVehicleStatuses = map[VehicleStatus]struct{}{
	1: {}, 2: {}, 3: {}, 4: {}, 6: {},
}

// Valid проверяет, что код входит в разрешенный набор {1,2,3,4,6}
func (s VehicleStatus) Valid() bool {
	_, ok := allowedVehicleStatuses[s]
	return ok
}

type Vehicle struct {
	ID     int64
	Name   string
	Status VehicleStatus
}

type VehicleInput struct {
	Name   string
	Status *VehicleStatus
}

type VehiclePatch struct {
	Name   Optional[string]
	Status Optional[VehicleStatus]
}
