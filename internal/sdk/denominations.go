package sdk

// Denominations counts notes of each value the fleet's terminals hold.
type Denominations struct {
	N1000 int `json:"n1000"`
	N500  int `json:"n500"`
	N200  int `json:"n200"`
}

// Total is the monetary value of the note counts.
func (d Denominations) Total() int {
	return d.N1000*1000 + d.N500*500 + d.N200*200
}

// Breakdown computes a greedy exact dispense: largest notes first, each
// step bounded by what the inventory holds. Returns false when no exact
// combination exists; a partial dispense is never returned.
func Breakdown(amount int, available Denominations) (Denominations, bool) {
	remaining := amount
	var dispensed Denominations

	dispensed.N1000 = min(remaining/1000, available.N1000)
	remaining -= dispensed.N1000 * 1000

	dispensed.N500 = min(remaining/500, available.N500)
	remaining -= dispensed.N500 * 500

	dispensed.N200 = min(remaining/200, available.N200)
	remaining -= dispensed.N200 * 200

	if remaining > 0 {
		return Denominations{}, false
	}
	return dispensed, true
}
