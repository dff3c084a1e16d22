package rules

import (
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	RuleID        string    `yaml:"rule_id"`
	Version       string    `yaml:"version"`
	EffectiveFrom string    `yaml:"effective_from"`
	Description   string    `yaml:"description"`
	Data          yaml.Node `yaml:"data"`
}

// YAML carries amounts and rates as strings; they are parsed into decimals
// here so a typo fails at load time, not mid-calculation.

type bracketDTO struct {
	UpTo   string `yaml:"up_to"` // empty marks the open-ended top band
	Rate   string `yaml:"rate"`
	Offset string `yaml:"offset"`
}

type shortTermDTO struct {
	ResidentialUnder1Y    string `yaml:"residential_under_1y"`
	Residential1To2Y      string `yaml:"residential_1_to_2y"`
	NonResidentialUnder1Y string `yaml:"non_residential_under_1y"`
	NonResidential1To2Y   string `yaml:"non_residential_1_to_2y"`
}

type linearDTO struct {
	MinYears int    `yaml:"min_years"`
	BaseRate string `yaml:"base_rate"`
	PerYear  string `yaml:"per_year"`
	MaxRate  string `yaml:"max_rate"`
}

type oneHouseDTO struct {
	Holding     linearDTO `yaml:"holding"`
	Residence   linearDTO `yaml:"residence"`
	CombinedMax string    `yaml:"combined_max"`
}

type exemptionDTO struct {
	MinHoldingYears   int    `yaml:"min_holding_years"`
	MinResidenceYears int    `yaml:"min_residence_years"`
	PriceCap          string `yaml:"price_cap"`
}

type surchargeDTO struct {
	TwoHouseAdjustedPoints string `yaml:"two_house_adjusted_points"`
	HeavyMinHouseCount     int    `yaml:"heavy_min_house_count"`
	HeavyPoints            string `yaml:"heavy_points"`
}

type scalarDTO struct {
	Value string `yaml:"value"`
}

// Load parses one YAML rule file and registers every entry. The data block is
// decoded into the payload type the rule id dictates.
func Load(r *Registry, data []byte) error {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse rule file: %w", err)
	}

	for _, entry := range file.Rules {
		effective, err := time.Parse("2006-01-02", entry.EffectiveFrom)
		if err != nil {
			return fmt.Errorf("rule %s@%s: invalid effective_from %q", entry.RuleID, entry.Version, entry.EffectiveFrom)
		}
		p, err := decodePayload(entry.RuleID, &entry.Data)
		if err != nil {
			return fmt.Errorf("rule %s@%s: %w", entry.RuleID, entry.Version, err)
		}
		if err := r.Register(RuleVersion{
			RuleID:        entry.RuleID,
			Version:       entry.Version,
			EffectiveFrom: effective,
			Description:   entry.Description,
			Payload:       p,
		}); err != nil {
			return err
		}
	}
	return nil
}

func decodePayload(ruleID string, node *yaml.Node) (any, error) {
	switch ruleID {
	case RuleProgressiveBrackets:
		var dto struct {
			Brackets []bracketDTO `yaml:"brackets"`
		}
		if err := node.Decode(&dto); err != nil {
			return nil, err
		}
		if len(dto.Brackets) == 0 {
			return nil, fmt.Errorf("empty bracket table")
		}
		out := make([]Bracket, len(dto.Brackets))
		for i, b := range dto.Brackets {
			rate, err := dec("rate", b.Rate)
			if err != nil {
				return nil, err
			}
			offset, err := dec("offset", b.Offset)
			if err != nil {
				return nil, err
			}
			out[i] = Bracket{Rate: rate, Offset: offset}
			if b.UpTo != "" {
				upTo, err := dec("up_to", b.UpTo)
				if err != nil {
					return nil, err
				}
				out[i].UpTo = &upTo
			}
		}
		if out[len(out)-1].UpTo != nil {
			return nil, fmt.Errorf("last bracket must be open-ended")
		}
		return out, nil

	case RuleShortTermRates:
		var dto shortTermDTO
		if err := node.Decode(&dto); err != nil {
			return nil, err
		}
		return decodeShortTerm(dto)

	case RuleLongTermGeneral:
		var dto linearDTO
		if err := node.Decode(&dto); err != nil {
			return nil, err
		}
		return decodeLinear(dto)

	case RuleLongTermOneHouse:
		var dto oneHouseDTO
		if err := node.Decode(&dto); err != nil {
			return nil, err
		}
		holding, err := decodeLinear(dto.Holding)
		if err != nil {
			return nil, err
		}
		residence, err := decodeLinear(dto.Residence)
		if err != nil {
			return nil, err
		}
		combined, err := dec("combined_max", dto.CombinedMax)
		if err != nil {
			return nil, err
		}
		return OneHouseDeduction{Holding: holding, Residence: residence, CombinedMax: combined}, nil

	case RuleExemptionOneHouse:
		var dto exemptionDTO
		if err := node.Decode(&dto); err != nil {
			return nil, err
		}
		cap, err := dec("price_cap", dto.PriceCap)
		if err != nil {
			return nil, err
		}
		return Exemption{
			MinHoldingYears:   dto.MinHoldingYears,
			MinResidenceYears: dto.MinResidenceYears,
			PriceCap:          cap,
		}, nil

	case RuleSurchargeMultiHouse:
		var dto surchargeDTO
		if err := node.Decode(&dto); err != nil {
			return nil, err
		}
		twoHouse, err := dec("two_house_adjusted_points", dto.TwoHouseAdjustedPoints)
		if err != nil {
			return nil, err
		}
		heavy, err := dec("heavy_points", dto.HeavyPoints)
		if err != nil {
			return nil, err
		}
		return Surcharge{
			TwoHouseAdjustedPoints: twoHouse,
			HeavyMinHouseCount:     dto.HeavyMinHouseCount,
			HeavyPoints:            heavy,
		}, nil

	case RuleBasicDeduction, RuleLocalIncomeTax, RuleHoldingTaxEstimate:
		var dto scalarDTO
		if err := node.Decode(&dto); err != nil {
			return nil, err
		}
		v, err := dec("value", dto.Value)
		if err != nil {
			return nil, err
		}
		return ScalarRule{Value: v}, nil

	default:
		return nil, fmt.Errorf("unknown rule id %q", ruleID)
	}
}

func decodeShortTerm(dto shortTermDTO) (ShortTermRates, error) {
	var out ShortTermRates
	var err error
	if out.ResidentialUnder1Y, err = dec("residential_under_1y", dto.ResidentialUnder1Y); err != nil {
		return out, err
	}
	if out.Residential1To2Y, err = dec("residential_1_to_2y", dto.Residential1To2Y); err != nil {
		return out, err
	}
	if out.NonResidentialUnder1Y, err = dec("non_residential_under_1y", dto.NonResidentialUnder1Y); err != nil {
		return out, err
	}
	if out.NonResidential1To2Y, err = dec("non_residential_1_to_2y", dto.NonResidential1To2Y); err != nil {
		return out, err
	}
	return out, nil
}

func decodeLinear(dto linearDTO) (LinearDeduction, error) {
	var out LinearDeduction
	var err error
	out.MinYears = dto.MinYears
	if out.BaseRate, err = dec("base_rate", dto.BaseRate); err != nil {
		return out, err
	}
	if out.PerYear, err = dec("per_year", dto.PerYear); err != nil {
		return out, err
	}
	if out.MaxRate, err = dec("max_rate", dto.MaxRate); err != nil {
		return out, err
	}
	return out, nil
}

func dec(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q for %s", s, field)
	}
	return d, nil
}

// LoadDir loads every *.yaml file of a filesystem in name order.
func LoadDir(r *Registry, fsys fs.FS) error {
	matches, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return err
	}
	sort.Strings(matches)
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read rule file %s: %w", name, err)
		}
		if err := Load(r, data); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}
