package datamodel

// HybridTag marks hybrid properties in the attribute map.
const HybridTag = "hybrid"

// RelationDescription is the rendering of one relationship or relationship
// proxy.
type RelationDescription struct {
	ForeignModel string    `json:"foreign_model"`
	RelationType Direction `json:"relation_type"`
	Backref      string    `json:"backref,omitempty"`
	LocalColumn  string    `json:"local_column,omitempty"`
	IsProxy      bool      `json:"is_proxy,omitempty"`
}

// Description is the reflected shape of one entity type.
type Description struct {
	Name       string
	PKName     string
	Attributes map[string]string
	Relations  map[string]RelationDescription
	Properties map[string]bool
}

// Reflect describes src, keeping only the names filter allows.
func Reflect(src SchemaSource, filter Filter) (*Description, error) {
	pk, err := src.PrimaryKey()
	if err != nil {
		return nil, err
	}

	d := &Description{
		Name:       src.Name(),
		PKName:     pk,
		Attributes: make(map[string]string),
		Relations:  make(map[string]RelationDescription),
		Properties: make(map[string]bool),
	}

	for _, c := range src.Columns() {
		if filter.Allows(c.Name) {
			d.Attributes[c.Name] = c.TypeTag
		}
	}

	for _, r := range src.Relationships() {
		if !filter.Allows(r.Name) {
			continue
		}
		direction := r.Direction
		if direction == OneToMany && !r.Collection {
			direction = OneToOne
		}
		rd := RelationDescription{
			ForeignModel: r.Target,
			RelationType: direction,
			Backref:      r.Backref,
		}
		if direction == ManyToOne && len(r.LocalColumns) > 0 {
			rd.LocalColumn = r.LocalColumns[0]
		}
		d.Relations[r.Name] = rd
	}

	for _, p := range src.ComputedProperties() {
		if filter.Allows(p.Name) {
			d.Properties[p.Name] = p.Settable
		}
	}

	// hybrids win over a column of the same name
	for _, name := range src.HybridProperties() {
		if filter.Allows(name) {
			d.Attributes[name] = HybridTag
		}
	}

	for _, ap := range src.AssociationProxies() {
		if !filter.Allows(ap.Name) {
			continue
		}
		switch ap.Kind {
		case ProxyRelation:
			direction := ManyToOne
			if !ap.Scalar {
				direction = OneToMany
			}
			d.Relations[ap.Name] = RelationDescription{
				ForeignModel: ap.Target,
				RelationType: direction,
				IsProxy:      true,
			}
		case ProxyColumn:
			d.Attributes[ap.Name] = ap.TypeTag
		}
	}

	return d, nil
}
