package sim

// EffectiveStats is the derived, on-demand stat block: base + sum(equipment
// bonuses) * product(status-effect multiplicative modifiers). It is never
// stored on the Entity; every caller recomputes it from Base + Inventory +
// Effects, per spec.md §3.
type EffectiveStats struct {
	HP, MaxHP           int
	Atk, Def             int
	Spd, Luck            int
	CritRate, CritDmg    float64
	Evasion              float64
	MAtk, MDef           int
	Stamina, MaxStamina  float64
}

// Effective computes e's effective stats from base + equipment + active
// effects. Registry is the opaque item data source for equipment bonuses;
// it may be nil, in which case equipment contributes nothing (useful for
// perception-only callers that only need HP/MaxHP).
func Effective(e *Entity, reg *Registry) EffectiveStats {
	s := EffectiveStats{
		HP:         e.Base.HP,
		MaxHP:      e.Base.MaxHP,
		Atk:        e.Base.Atk,
		Def:        e.Base.Def,
		Spd:        e.Base.Spd,
		Luck:       e.Base.Luck,
		CritRate:   e.Base.CritRate,
		CritDmg:    e.Base.CritDmg,
		Evasion:    e.Base.Evasion,
		MAtk:       e.Base.MAtk,
		MDef:       e.Base.MDef,
		Stamina:    e.Base.Stamina,
		MaxStamina: e.Base.MaxStamina,
	}

	if e.Inventory != nil && reg != nil {
		for _, stack := range e.Inventory.Equip {
			if stack.ItemID == "" {
				continue
			}
			def, ok := reg.Item(stack.ItemID)
			if !ok {
				continue
			}
			s.Atk += def.AtkBonus
			s.Def += def.DefBonus
			s.MaxHP += def.MaxHPBonus
			s.MAtk += def.MAtkBonus
			s.MDef += def.MDefBonus
			s.CritRate += def.CritRateBonus
		}
	}

	atkMult, defMult, spdMult := 1.0, 1.0, 1.0
	for _, eff := range e.Effects {
		if eff.StatMultipliers == nil {
			continue
		}
		if m, ok := eff.StatMultipliers["atk"]; ok {
			atkMult *= m
		}
		if m, ok := eff.StatMultipliers["def"]; ok {
			defMult *= m
		}
		if m, ok := eff.StatMultipliers["spd"]; ok {
			spdMult *= m
		}
	}
	s.Atk = int(float64(s.Atk) * atkMult)
	s.Def = int(float64(s.Def) * defMult)
	s.Spd = int(float64(s.Spd) * spdMult)

	if s.MaxHP < 1 {
		s.MaxHP = 1
	}
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
	}
	return s
}

// HPRatio returns hp/max_hp in [0, 1], guarding against a zero max.
func HPRatio(e *Entity, reg *Registry) float64 {
	eff := Effective(e, reg)
	if eff.MaxHP <= 0 {
		return 0
	}
	r := float64(eff.HP) / float64(eff.MaxHP)
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return r
}

// StaminaRatio returns stamina/max_stamina in [0, 1].
func StaminaRatio(e *Entity) float64 {
	if e.Base.MaxStamina <= 0 {
		return 1
	}
	r := e.Base.Stamina / e.Base.MaxStamina
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return r
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
