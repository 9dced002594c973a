package models

// populateGatePassItems replaces the rows with one row per source row.
func populateGatePassItems(gp *GatePass, items []ReferenceItem) {
	gp.Items = make([]*GatePassItem, 0, len(items))
	for _, item := range items {
		gp.Items = append(gp.Items, &GatePassItem{ReferenceItem: item})
	}
}

// alignGatePassItems brings the rows in line with the source rows. When the key sets
// differ, or a key repeats, the table is rebuilt; otherwise each row is refreshed in place. With preserve set
// the guard-entered received qty survives the refresh, without it the dispatched qty is
// taken from the source. Running it twice with the same input changes nothing.
func alignGatePassItems(gp *GatePass, items []ReferenceItem, preserve bool) {
	if len(items) == 0 {
		gp.Items = nil
		return
	}
	if len(gp.Items) == 0 {
		populateGatePassItems(gp, items)
		return
	}

	reference := make(map[string]ReferenceItem, len(items))
	for _, item := range items {
		reference[item.Key()] = item
	}
	existing := make(map[string]*GatePassItem, len(gp.Items))
	for _, row := range gp.Items {
		existing[row.Key()] = row
	}
	// duplicated keys collapse in the map, so a row count mismatch is a key mismatch too
	if len(existing) != len(gp.Items) || !sameKeys(reference, existing) {
		populateGatePassItems(gp, items)
		return
	}

	for key, item := range reference {
		row := existing[key]
		received := row.ReceivedQty
		row.ReferenceItem = item
		if preserve {
			row.ReceivedQty = received
		}
	}
}

func sameKeys(a map[string]ReferenceItem, b map[string]*GatePassItem) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// recalculateItemAmounts sets amount = rate x moved qty.
func recalculateItemAmounts(gp *GatePass) {
	for _, row := range gp.Items {
		row.Amount = row.Rate.Mul(gp.MovementQty(row))
	}
}
