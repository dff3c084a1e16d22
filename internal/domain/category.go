package domain

// Category is the classified case type of a disposal. It drives which
// scenario set and risk rules apply downstream.
type Category string

const (
	CategorySingleHouseExempt  Category = "single_house_exempt"
	CategorySingleHouseTaxable Category = "single_house_taxable"
	CategoryMultiHouseGeneral  Category = "multi_house_general"
	CategoryMultiHouseHeavy    Category = "multi_house_heavy"
	CategoryRegulatedAreaHeavy Category = "regulated_area_heavy"
	CategoryCorporate          Category = "corporate"
	CategoryInheritance        Category = "inheritance"
	CategoryComplex            Category = "complex"
	CategoryOther              Category = "other"
)

var categoryDescriptions = map[Category]string{
	CategorySingleHouseExempt:  "single house, primary-residence exemption applies",
	CategorySingleHouseTaxable: "single house, exemption conditions not met",
	CategoryMultiHouseGeneral:  "two houses, general progressive rates",
	CategoryMultiHouseHeavy:    "three or more houses, heavy surcharge",
	CategoryRegulatedAreaHeavy: "multiple houses in a regulated area, surcharge applies",
	CategoryCorporate:          "corporate owner, separate tax regime",
	CategoryInheritance:        "inherited asset, special holding-period rules",
	CategoryComplex:            "mixed acquisition history, needs expert review",
	CategoryOther:              "unclassified case",
}

// Description returns a short human-readable label for the category.
func (c Category) Description() string {
	if d, ok := categoryDescriptions[c]; ok {
		return d
	}
	return string(c)
}
