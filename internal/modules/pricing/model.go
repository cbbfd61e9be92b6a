// README: Pricing rate table and fare estimate result.
package pricing

import (
	"fmt"

	"ryde/internal/maps"
	"ryde/internal/types"
)

// RateTable is the amount charged per distance unit for each vehicle class.
type RateTable map[types.VehicleType]int64

// DefaultRates keeps auto cheapest and car most expensive.
var DefaultRates = RateTable{
	types.VehicleAuto:       30,
	types.VehicleCar:        50,
	types.VehicleMotorcycle: 20,
}

// RatesFromConfig converts a vehicle-name keyed map, rejecting unknown classes and negative rates.
func RatesFromConfig(in map[string]int64) (RateTable, error) {
	out := make(RateTable, len(in))
	for k, v := range in {
		vt := types.VehicleType(k)
		if !vt.Valid() {
			return nil, fmt.Errorf("unknown vehicle type %q in rate table", k)
		}
		if v < 0 {
			return nil, fmt.Errorf("negative rate for %s", k)
		}
		out[vt] = v
	}
	for _, vt := range types.VehicleTypes {
		if _, ok := out[vt]; !ok {
			return nil, fmt.Errorf("missing rate for %s", vt)
		}
	}
	return out, nil
}

type Estimate struct {
	Fare  types.Money
	Quote maps.Quote
}
