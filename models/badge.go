package models

// LogCount tracks how many entries a user has logged in total.
type LogCount struct {
	UserEmail string `bson:"_id" json:"-"`
	TotalLogs int    `bson:"totalLogs" json:"totalLogs"`
}

// BadgeSet is the append-only set of badges a user holds.
type BadgeSet struct {
	UserEmail string   `bson:"_id" json:"-"`
	Badges    []string `bson:"badges" json:"badges"`
}

// Has reports whether the set already contains name.
func (b BadgeSet) Has(name string) bool {
	for _, badge := range b.Badges {
		if badge == name {
			return true
		}
	}
	return false
}
