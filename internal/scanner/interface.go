package scanner

import "github.com/Jay1/budsctl/internal/intelligence"

// Advertisement is one parsed battery tuple emitted by the external
// BLE helper. Battery fields use -1 for "not reported".
type Advertisement struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	RSSI    *int   `json:"rssi,omitempty"`

	LeftBattery  int `json:"left_battery"`
	RightBattery int `json:"right_battery"`
	CaseBattery  int `json:"case_battery"`

	LeftCharging  bool `json:"left_charging"`
	RightCharging bool `json:"right_charging"`
	CaseCharging  bool `json:"case_charging"`

	LeftInEar  bool `json:"left_in_ear"`
	RightInEar bool `json:"right_in_ear"`
}

// Source delivers advertisements until its input ends or it is closed.
type Source interface {
	// Advertisements returns the delivery channel; closed on EOF
	Advertisements() <-chan Advertisement

	Close() error
}

// Reading converts the wire tuple into the estimator's inbound form,
// mapping -1 sentinels to absent levels.
func (a Advertisement) Reading() intelligence.Reading {
	return intelligence.Reading{
		Address:       a.Address,
		Name:          a.Name,
		Left:          levelOrNil(a.LeftBattery),
		Right:         levelOrNil(a.RightBattery),
		Case:          levelOrNil(a.CaseBattery),
		LeftCharging:  a.LeftCharging,
		RightCharging: a.RightCharging,
		CaseCharging:  a.CaseCharging,
		LeftInEar:     a.LeftInEar,
		RightInEar:    a.RightInEar,
		RSSI:          a.RSSI,
	}
}

func levelOrNil(v int) *int {
	if v < 0 || v > 100 {
		return nil
	}

	return &v
}
