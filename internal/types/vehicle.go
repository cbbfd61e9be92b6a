// README: Vehicle class enumeration shared by pricing, rides and driver accounts.
package types

type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleAuto       VehicleType = "auto"
)

// VehicleTypes lists the supported classes in display order.
var VehicleTypes = []VehicleType{VehicleAuto, VehicleCar, VehicleMotorcycle}

func (v VehicleType) Valid() bool {
	switch v {
	case VehicleCar, VehicleMotorcycle, VehicleAuto:
		return true
	}
	return false
}
