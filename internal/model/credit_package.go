package model

import "sort"

type CreditPackage struct {
	Credits    int
	PriceCents int64
	Name       string
}

// CreditPackages must match the packages offered by the front end.
var CreditPackages = map[int]CreditPackage{
	10:  {Credits: 10, PriceCents: 499, Name: "10 Credits"},
	25:  {Credits: 25, PriceCents: 999, Name: "25 Credits"},
	50:  {Credits: 50, PriceCents: 1499, Name: "50 Credits"},
	100: {Credits: 100, PriceCents: 2499, Name: "100 Credits"},
}

func LookupCreditPackage(credits int) (CreditPackage, bool) {
	pkg, ok := CreditPackages[credits]
	return pkg, ok
}

// SortedCreditPackages lists packages from smallest to largest.
func SortedCreditPackages() []CreditPackage {
	out := make([]CreditPackage, 0, len(CreditPackages))
	for _, p := range CreditPackages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Credits < out[j].Credits })
	return out
}
