package decode

import (
	"fmt"
	"strings"

	"github.com/esmscan/esmscan"
	"github.com/esmscan/esmscan/internal/binreader"
	"github.com/esmscan/esmscan/internal/record"
)

func decodeWeapon(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID

	if dnam, ok := rec.Find("DNAM"); ok && len(dnam.Data) >= 170 {
		d := dnam.Data
		if v, ok := u32At(d, 0); ok {
			fields = append(fields, Field{fid, "animation_type", lookupEnum(weaponAnimationType, v), esmscan.KindEnum})
		}
		if v, ok := f32At(d, 4); ok {
			fields = append(fields, Field{fid, "speed", fmt.Sprintf("%.4f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 8); ok {
			fields = append(fields, Field{fid, "reach", fmt.Sprintf("%.4f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 24); ok {
			fields = append(fields, Field{fid, "min_range", fmt.Sprintf("%.1f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 28); ok {
			fields = append(fields, Field{fid, "max_range", fmt.Sprintf("%.1f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 32); ok {
			fields = append(fields, Field{fid, "attack_delay", fmt.Sprintf("%.4f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 44); ok {
			fields = append(fields, Field{fid, "out_of_range_dmg_mult", fmt.Sprintf("%.4f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 48); ok {
			fields = append(fields, Field{fid, "secondary_damage", fmt.Sprintf("%.4f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 52); ok {
			fields = append(fields, Field{fid, "weight", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
		if v, ok := u32At(d, 56); ok {
			fields = append(fields, Field{fid, "value", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
		if v, ok := f32At(d, 60); ok {
			fields = append(fields, Field{fid, "damage", fmt.Sprintf("%.1f", v), esmscan.KindFloat})
		}
		if v, ok := u8At(d, 101); ok {
			fields = append(fields, Field{fid, "num_projectiles", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
		if v, ok := u32At(d, 112); ok {
			fields = append(fields, Field{fid, "sound_level", lookupEnum(weaponSoundLevel, v), esmscan.KindEnum})
		}
	}

	if crdt, ok := rec.Find("CRDT"); ok && len(crdt.Data) >= 12 {
		if v, ok := f32At(crdt.Data, 0); ok {
			fields = append(fields, Field{fid, "crit_damage", fmt.Sprintf("%.1f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(crdt.Data, 4); ok {
			fields = append(fields, Field{fid, "crit_multiplier", fmt.Sprintf("%.4f", v), esmscan.KindFloat})
		}
	}

	if dama, ok := rec.Find("DAMA"); ok && len(dama.Data) >= 8 {
		count := len(dama.Data) / 8
		for i := 0; i < count; i++ {
			typeFid, ok1 := u32At(dama.Data, i*8)
			value, ok2 := f32At(dama.Data, i*8+4)
			if !ok1 || !ok2 {
				break
			}
			fields = append(fields,
				Field{fid, fmt.Sprintf("damage_type_%d_id", i), formid(typeFid), esmscan.KindFormIDRef},
				Field{fid, fmt.Sprintf("damage_type_%d_value", i), fmt.Sprintf("%.1f", value), esmscan.KindFloat},
			)
		}
	}

	return fields
}

func decodeArmor(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID

	if data, ok := rec.Find("DATA"); ok && len(data.Data) >= 8 {
		if v, ok := i32At(data.Data, 0); ok {
			fields = append(fields, Field{fid, "value", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
		if v, ok := f32At(data.Data, 4); ok {
			fields = append(fields, Field{fid, "weight", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
		if len(data.Data) >= 12 {
			if v, ok := u32At(data.Data, 8); ok {
				fields = append(fields, Field{fid, "health", fmt.Sprintf("%d", v), esmscan.KindInteger})
			}
		}
	}
	if dnam, ok := rec.Find("DNAM"); ok && len(dnam.Data) >= 4 {
		if v, ok := u32At(dnam.Data, 0); ok {
			fields = append(fields, Field{fid, "armor_rating", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
	}
	if bod2, ok := rec.Find("BOD2"); ok && len(bod2.Data) >= 8 {
		if v, ok := u32At(bod2.Data, 0); ok {
			fields = append(fields, Field{fid, "biped_slots", fmt.Sprintf("0x%08X", v), esmscan.KindFlags})
		}
	}
	return fields
}

func decodeAlchemy(rec *record.Record) []Field {
	fields := decodeEnit(rec)
	fields = append(fields, decodeEffectPairs(rec)...)
	if data, ok := rec.Find("DATA"); ok && len(data.Data) >= 4 {
		if v, ok := f32At(data.Data, 0); ok {
			fields = append(fields, Field{rec.FormID, "weight", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
	}
	return fields
}

func decodeEnit(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	enit, ok := rec.Find("ENIT")
	if !ok || len(enit.Data) < 12 {
		return nil
	}
	d := enit.Data
	if v, ok := i32At(d, 0); ok {
		fields = append(fields, Field{fid, "value", fmt.Sprintf("%d", v), esmscan.KindInteger})
	}
	flags, ok := u32At(d, 4)
	if ok {
		fields = append(fields,
			Field{fid, "enit_flags", fmt.Sprintf("0x%08X", flags), esmscan.KindFlags},
			Field{fid, "is_food", fmt.Sprintf("%t", flags&0x00000002 != 0), esmscan.KindString},
			Field{fid, "is_medicine", fmt.Sprintf("%t", flags&0x00010000 != 0), esmscan.KindString},
			Field{fid, "is_poison", fmt.Sprintf("%t", flags&0x00020000 != 0), esmscan.KindString},
		)
	}
	if v, ok := u32At(d, 8); ok && v != 0 {
		fields = append(fields, Field{fid, "addiction", formid(v), esmscan.KindFormIDRef})
	}
	if len(d) >= 20 {
		if v, ok := u32At(d, 16); ok && v != 0 {
			fields = append(fields, Field{fid, "consume_sound", formid(v), esmscan.KindFormIDRef})
		}
	}
	return fields
}

// decodeEffectPairs pairs each EFID subrecord with the EFIT that follows
// it, shared by ALCH/ENCH/SPEL effect lists.
func decodeEffectPairs(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	subs := rec.Subrecords
	i := -1
	for k, efid := range subs {
		if efid.Tag.String() != "EFID" {
			continue
		}
		i++
		if k+1 >= len(subs) || subs[k+1].Tag.String() != "EFIT" || len(efid.Data) < 4 {
			continue
		}
		efit := subs[k+1]
		effectFid, ok := u32At(efid.Data, 0)
		if !ok {
			continue
		}
		fields = append(fields, Field{fid, fmt.Sprintf("effect_%d_id", i), formid(effectFid), esmscan.KindFormIDRef})
		if len(efit.Data) >= 12 {
			magnitude, ok1 := f32At(efit.Data, 0)
			area, ok2 := u32At(efit.Data, 4)
			duration, ok3 := u32At(efit.Data, 8)
			if ok1 && ok2 && ok3 {
				fields = append(fields,
					Field{fid, fmt.Sprintf("effect_%d_magnitude", i), fmt.Sprintf("%.2f", magnitude), esmscan.KindFloat},
					Field{fid, fmt.Sprintf("effect_%d_area", i), fmt.Sprintf("%d", area), esmscan.KindInteger},
					Field{fid, fmt.Sprintf("effect_%d_duration", i), fmt.Sprintf("%d", duration), esmscan.KindInteger},
				)
			}
		}
	}
	return fields
}

func decodeNPC(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID

	if acbs, ok := rec.Find("ACBS"); ok && len(acbs.Data) >= 20 {
		d := acbs.Data
		if flags, ok := u32At(d, 0); ok {
			fields = append(fields,
				Field{fid, "npc_flags", fmt.Sprintf("0x%08X", flags), esmscan.KindFlags},
				Field{fid, "is_essential", fmt.Sprintf("%t", flags&0x00000002 != 0), esmscan.KindString},
				Field{fid, "is_unique", fmt.Sprintf("%t", flags&0x00000004 != 0), esmscan.KindString},
				Field{fid, "is_protected", fmt.Sprintf("%t", flags&0x00000800 != 0), esmscan.KindString},
			)
		}
		if v, ok := u16At(d, 4); ok {
			fields = append(fields, Field{fid, "magicka_offset", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
		if v, ok := u16At(d, 6); ok {
			fields = append(fields, Field{fid, "stamina_offset", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
		if v, ok := u16At(d, 8); ok {
			fields = append(fields, Field{fid, "level", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
		if v, ok := u16At(d, 14); ok {
			fields = append(fields, Field{fid, "health_offset", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
	}
	if dnam, ok := rec.Find("DNAM"); ok && len(dnam.Data) >= 4 {
		if v, ok := u16At(dnam.Data, 0); ok {
			fields = append(fields, Field{fid, "base_health", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
		if v, ok := u16At(dnam.Data, 2); ok {
			fields = append(fields, Field{fid, "base_action_points", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
	}
	if rnam, ok := rec.Find("RNAM"); ok && len(rnam.Data) >= 4 {
		if v, ok := u32At(rnam.Data, 0); ok {
			fields = append(fields, Field{fid, "race", formid(v), esmscan.KindFormIDRef})
		}
	}
	return fields
}

func decodeQuest(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	data, ok := rec.Find("DATA")
	if !ok || len(data.Data) < 4 {
		return nil
	}
	d := data.Data
	if flags, ok := u32At(d, 0); ok {
		fields = append(fields,
			Field{fid, "quest_flags", fmt.Sprintf("0x%08X", flags), esmscan.KindFlags},
			Field{fid, "start_game_enabled", fmt.Sprintf("%t", flags&0x0001 != 0), esmscan.KindString},
			Field{fid, "wilderness_encounter", fmt.Sprintf("%t", flags&0x0080 != 0), esmscan.KindString},
		)
	}
	if len(d) >= 8 {
		if v, ok := u32At(d, 4); ok {
			fields = append(fields, Field{fid, "priority", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
	}
	if len(d) >= 16 {
		if v, ok := u32At(d, 8); ok {
			fields = append(fields, Field{fid, "quest_type", lookupEnum(questType, v), esmscan.KindEnum})
		}
	}
	return fields
}

func decodeCraftingRecipe(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID

	if cnam, ok := rec.Find("CNAM"); ok && len(cnam.Data) >= 4 {
		if v, ok := u32At(cnam.Data, 0); ok {
			fields = append(fields, Field{fid, "created_object", formid(v), esmscan.KindFormIDRef})
		}
	}
	if bnam, ok := rec.Find("BNAM"); ok && len(bnam.Data) >= 4 {
		if v, ok := u32At(bnam.Data, 0); ok {
			fields = append(fields, Field{fid, "workbench_keyword", formid(v), esmscan.KindFormIDRef})
		}
	}
	if dnam, ok := rec.Find("DNAM"); ok && len(dnam.Data) >= 8 {
		if v, ok := u32At(dnam.Data, 4); ok {
			fields = append(fields, Field{fid, "created_count", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
	}
	if fvpa, ok := rec.Find("FVPA"); ok && len(fvpa.Data) >= 8 {
		count := len(fvpa.Data) / 8
		for i := 0; i < count; i++ {
			compFid, ok1 := u32At(fvpa.Data, i*8)
			compCount, ok2 := u32At(fvpa.Data, i*8+4)
			if !ok1 || !ok2 {
				break
			}
			fields = append(fields,
				Field{fid, fmt.Sprintf("component_%d_id", i), formid(compFid), esmscan.KindFormIDRef},
				Field{fid, fmt.Sprintf("component_%d_count", i), fmt.Sprintf("%d", compCount), esmscan.KindInteger},
			)
		}
	}
	return fields
}

func decodeAmmo(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID

	if data, ok := rec.Find("DATA"); ok && len(data.Data) >= 8 {
		if v, ok := i32At(data.Data, 0); ok {
			fields = append(fields, Field{fid, "projectile_count", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
		if v, ok := f32At(data.Data, 4); ok {
			fields = append(fields, Field{fid, "weight", fmt.Sprintf("%.4f", v), esmscan.KindFloat})
		}
	}
	if dnam, ok := rec.Find("DNAM"); ok && len(dnam.Data) >= 16 {
		d := dnam.Data
		if v, ok := u32At(d, 0); ok {
			fields = append(fields, Field{fid, "projectile", formid(v), esmscan.KindFormIDRef})
		}
		if v, ok := u32At(d, 4); ok {
			fields = append(fields, Field{fid, "ammo_flags", fmt.Sprintf("0x%08X", v), esmscan.KindFlags})
		}
		if v, ok := f32At(d, 8); ok {
			fields = append(fields, Field{fid, "speed", fmt.Sprintf("%.1f", v), esmscan.KindFloat})
		}
	}
	return fields
}

// decodeValueWeight handles MISC/BOOK/KEYM, whose DATA subrecord is
// uniformly value(i32) + weight(f32).
func decodeValueWeight(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	data, ok := rec.Find("DATA")
	if !ok || len(data.Data) < 8 {
		return nil
	}
	if v, ok := i32At(data.Data, 0); ok {
		fields = append(fields, Field{fid, "value", fmt.Sprintf("%d", v), esmscan.KindInteger})
	}
	if v, ok := f32At(data.Data, 4); ok {
		fields = append(fields, Field{fid, "weight", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
	}
	return fields
}

func decodeGameSetting(rec *record.Record) []Field {
	data, ok := rec.Find("DATA")
	if !ok || len(data.Data) < 4 {
		return nil
	}
	edid := rec.EditorID()

	switch {
	case strings.HasPrefix(edid, "f"):
		if v, ok := f32At(data.Data, 0); ok {
			return []Field{{rec.FormID, "value", fmt.Sprintf("%.6f", v), esmscan.KindFloat}}
		}
	case strings.HasPrefix(edid, "i"), strings.HasPrefix(edid, "u"):
		if v, ok := i32At(data.Data, 0); ok {
			return []Field{{rec.FormID, "value", fmt.Sprintf("%d", v), esmscan.KindInteger}}
		}
	case strings.HasPrefix(edid, "s"):
		return []Field{{rec.FormID, "value", binreader.TrimString(data.Data), esmscan.KindString}}
	case strings.HasPrefix(edid, "b"):
		if v, ok := u32At(data.Data, 0); ok {
			return []Field{{rec.FormID, "value", fmt.Sprintf("%t", v != 0), esmscan.KindString}}
		}
	}
	return nil
}

func decodeGlobal(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	if fnam, ok := rec.Find("FNAM"); ok && len(fnam.Data) >= 1 {
		typeName := map[byte]string{0x73: "short", 0x6C: "long", 0x66: "float"}[fnam.Data[0]]
		if typeName == "" {
			typeName = fmt.Sprintf("0x%02X", fnam.Data[0])
		}
		fields = append(fields, Field{fid, "type", typeName, esmscan.KindString})
	}
	if fltv, ok := rec.Find("FLTV"); ok && len(fltv.Data) >= 4 {
		if v, ok := f32At(fltv.Data, 0); ok {
			fields = append(fields, Field{fid, "value", fmt.Sprintf("%.6f", v), esmscan.KindFloat})
		}
	}
	return fields
}

func decodeContainer(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	for i, cnto := range rec.FindAll("CNTO") {
		if len(cnto.Data) < 8 {
			continue
		}
		itemFid, ok1 := u32At(cnto.Data, 0)
		itemCount, ok2 := i32At(cnto.Data, 4)
		if !ok1 || !ok2 {
			continue
		}
		fields = append(fields,
			Field{fid, fmt.Sprintf("item_%d_id", i), formid(itemFid), esmscan.KindFormIDRef},
			Field{fid, fmt.Sprintf("item_%d_count", i), fmt.Sprintf("%d", itemCount), esmscan.KindInteger},
		)
	}
	return fields
}

func decodeFlora(rec *record.Record) []Field {
	pfig, ok := rec.Find("PFIG")
	if !ok || len(pfig.Data) < 4 {
		return nil
	}
	v, ok := u32At(pfig.Data, 0)
	if !ok {
		return nil
	}
	return []Field{{rec.FormID, "harvest_ingredient", formid(v), esmscan.KindFormIDRef}}
}

func decodeLeveledList(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID

	if lvld, ok := rec.Find("LVLD"); ok && len(lvld.Data) >= 1 {
		fields = append(fields, Field{fid, "chance_none", fmt.Sprintf("%d", lvld.Data[0]), esmscan.KindInteger})
	}
	if lvlf, ok := rec.Find("LVLF"); ok && len(lvlf.Data) >= 1 {
		flags := lvlf.Data[0]
		fields = append(fields,
			Field{fid, "lvlf_flags", fmt.Sprintf("0x%02X", flags), esmscan.KindFlags},
			Field{fid, "calculate_all", fmt.Sprintf("%t", flags&0x01 != 0), esmscan.KindString},
			Field{fid, "calculate_all_lte_pc", fmt.Sprintf("%t", flags&0x02 != 0), esmscan.KindString},
			Field{fid, "use_all", fmt.Sprintf("%t", flags&0x04 != 0), esmscan.KindString},
		)
	}
	if llct, ok := rec.Find("LLCT"); ok && len(llct.Data) >= 1 {
		fields = append(fields, Field{fid, "entry_count", fmt.Sprintf("%d", llct.Data[0]), esmscan.KindInteger})
	}
	for i, lvlo := range rec.FindAll("LVLO") {
		if len(lvlo.Data) < 12 {
			continue
		}
		level, ok1 := u16At(lvlo.Data, 0)
		ref, ok2 := u32At(lvlo.Data, 4)
		count, ok3 := u16At(lvlo.Data, 8)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		fields = append(fields,
			Field{fid, fmt.Sprintf("entry_%d_level", i), fmt.Sprintf("%d", level), esmscan.KindInteger},
			Field{fid, fmt.Sprintf("entry_%d_ref", i), formid(ref), esmscan.KindFormIDRef},
			Field{fid, fmt.Sprintf("entry_%d_count", i), fmt.Sprintf("%d", count), esmscan.KindInteger},
		)
	}
	return fields
}

func decodePerk(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	if data, ok := rec.Find("DATA"); ok && len(data.Data) >= 5 {
		d := data.Data
		fields = append(fields,
			Field{fid, "is_playable", fmt.Sprintf("%t", d[0] != 0), esmscan.KindString},
			Field{fid, "trait", fmt.Sprintf("%t", d[1] != 0), esmscan.KindString},
			Field{fid, "level", fmt.Sprintf("%d", d[2]), esmscan.KindInteger},
			Field{fid, "num_ranks", fmt.Sprintf("%d", d[3]), esmscan.KindInteger},
			Field{fid, "hidden", fmt.Sprintf("%t", d[4] != 0), esmscan.KindString},
		)
	}
	if nnam, ok := rec.Find("NNAM"); ok && len(nnam.Data) >= 4 {
		if v, ok := u32At(nnam.Data, 0); ok {
			fields = append(fields, Field{fid, "next_perk", formid(v), esmscan.KindFormIDRef})
		}
	}
	return fields
}

// decodeMagicItem handles ENCH and SPEL, which share a 36-byte
// ENIT/SPIT layout plus EFID/EFIT effect pairs.
func decodeMagicItem(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID

	data, ok := rec.Find("ENIT")
	if !ok {
		data, ok = rec.Find("SPIT")
	}
	if ok && len(data.Data) >= 36 {
		d := data.Data
		if v, ok := u32At(d, 0); ok {
			fields = append(fields, Field{fid, "cost", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
		if v, ok := u32At(d, 4); ok {
			fields = append(fields, Field{fid, "flags", fmt.Sprintf("0x%08X", v), esmscan.KindFlags})
		}
		if v, ok := u32At(d, 8); ok {
			fields = append(fields, Field{fid, "cast_type", lookupEnum(castingType, v), esmscan.KindEnum})
		}
		if v, ok := f32At(d, 12); ok {
			fields = append(fields, Field{fid, "charge_amount", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
		if v, ok := u32At(d, 16); ok {
			fields = append(fields, Field{fid, "target_type", lookupEnum(targetType, v), esmscan.KindEnum})
		}
		if v, ok := u32At(d, 20); ok {
			if rec.Tag.String() == "SPEL" {
				fields = append(fields, Field{fid, "spell_type", lookupEnum(spellType, v), esmscan.KindEnum})
			} else {
				fields = append(fields, Field{fid, "enchant_type", lookupEnum(enchantType, v), esmscan.KindEnum})
			}
		}
		if v, ok := f32At(d, 24); ok {
			fields = append(fields, Field{fid, "charge_time", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
		if v, ok := u32At(d, 28); ok && v != 0 {
			if rec.Tag.String() == "SPEL" {
				fields = append(fields, Field{fid, "half_cost_perk", formid(v), esmscan.KindFormIDRef})
			} else {
				fields = append(fields, Field{fid, "base_enchantment", formid(v), esmscan.KindFormIDRef})
			}
		}
	}

	fields = append(fields, decodeEffectPairs(rec)...)
	return fields
}

func decodeMagicEffect(rec *record.Record) []Field {
	data, ok := rec.Find("DATA")
	if !ok || len(data.Data) < 52 {
		return nil
	}
	fid := rec.FormID
	d := data.Data
	var fields []Field
	if v, ok := u32At(d, 0); ok {
		fields = append(fields, Field{fid, "flags", fmt.Sprintf("0x%08X", v), esmscan.KindFlags})
	}
	if v, ok := f32At(d, 4); ok {
		fields = append(fields, Field{fid, "base_cost", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
	}
	if v, ok := u32At(d, 8); ok {
		fields = append(fields, Field{fid, "related_id", formid(v), esmscan.KindFormIDRef})
	}
	if v, ok := u32At(d, 12); ok {
		fields = append(fields, Field{fid, "magic_skill", fmt.Sprintf("%d", v), esmscan.KindInteger})
	}
	if v, ok := u32At(d, 16); ok {
		fields = append(fields, Field{fid, "resist_value", fmt.Sprintf("%d", v), esmscan.KindInteger})
	}
	if v, ok := u16At(d, 20); ok {
		fields = append(fields, Field{fid, "casting_light", fmt.Sprintf("%d", v), esmscan.KindInteger})
	}
	if v, ok := f32At(d, 24); ok {
		fields = append(fields, Field{fid, "taper_weight", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
	}
	if v, ok := u32At(d, 48); ok {
		fields = append(fields, Field{fid, "archetype", lookupEnum(magicEffectArchetype, v), esmscan.KindEnum})
	}
	if len(d) >= 56 {
		if v, ok := u32At(d, 52); ok {
			fields = append(fields, Field{fid, "casting_type", lookupEnum(castingType, v), esmscan.KindEnum})
		}
	}
	if len(d) >= 60 {
		if v, ok := u32At(d, 56); ok {
			fields = append(fields, Field{fid, "delivery", lookupEnum(targetType, v), esmscan.KindEnum})
		}
	}
	return fields
}

func decodeObjectMod(rec *record.Record) []Field {
	data, ok := rec.Find("DATA")
	if !ok || len(data.Data) < 2 {
		return nil
	}
	fid := rec.FormID
	includeCount := data.Data[0]
	propertyCount := data.Data[1]
	fields := []Field{
		{fid, "include_count", fmt.Sprintf("%d", includeCount), esmscan.KindInteger},
		{fid, "property_count", fmt.Sprintf("%d", propertyCount), esmscan.KindInteger},
	}
	for i := 0; i < int(propertyCount); i++ {
		off := 8 + i*24
		if off+24 > len(data.Data) {
			break
		}
		d := data.Data
		valueType, ok1 := u8At(d, off)
		functionType, ok2 := u8At(d, off+1)
		keyword, ok3 := u32At(d, off+4)
		value1, ok4 := f32At(d, off+8)
		value2, ok5 := f32At(d, off+12)
		step, ok6 := f32At(d, off+16)
		if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
			break
		}
		prefix := fmt.Sprintf("property_%d", i)
		fields = append(fields,
			Field{fid, prefix + "_value_type", lookupEnum(omodValueType, uint32(valueType)), esmscan.KindEnum},
			Field{fid, prefix + "_function_type", lookupEnum(omodFunctionType, uint32(functionType)), esmscan.KindEnum},
			Field{fid, prefix + "_keyword", formid(keyword), esmscan.KindFormIDRef},
			Field{fid, prefix + "_value1", fmt.Sprintf("%.4f", value1), esmscan.KindFloat},
			Field{fid, prefix + "_value2", fmt.Sprintf("%.4f", value2), esmscan.KindFloat},
			Field{fid, prefix + "_step", fmt.Sprintf("%.4f", step), esmscan.KindFloat},
		)
	}
	return fields
}

func decodeFaction(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	if data, ok := rec.Find("DATA"); ok && len(data.Data) >= 4 {
		if flags, ok := u32At(data.Data, 0); ok {
			fields = append(fields, Field{fid, "faction_flags", fmt.Sprintf("0x%08X", flags), esmscan.KindFlags})
		}
	}
	for i, xnam := range rec.FindAll("XNAM") {
		if len(xnam.Data) < 12 {
			continue
		}
		factionFid, ok1 := u32At(xnam.Data, 0)
		modifier, ok2 := i32At(xnam.Data, 4)
		reaction, ok3 := u32At(xnam.Data, 8)
		if !(ok1 && ok2 && ok3) {
			continue
		}
		fields = append(fields,
			Field{fid, fmt.Sprintf("relation_%d_faction", i), formid(factionFid), esmscan.KindFormIDRef},
			Field{fid, fmt.Sprintf("relation_%d_modifier", i), fmt.Sprintf("%d", modifier), esmscan.KindInteger},
			Field{fid, fmt.Sprintf("relation_%d_reaction", i), lookupEnum(factionReaction, reaction), esmscan.KindEnum},
		)
	}
	return fields
}

func decodeRace(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	if data, ok := rec.Find("DATA"); ok && len(data.Data) >= 48 {
		d := data.Data
		if v, ok := u32At(d, 0); ok {
			fields = append(fields, Field{fid, "race_flags", fmt.Sprintf("0x%08X", v), esmscan.KindFlags})
		}
		if v, ok := f32At(d, 36); ok {
			fields = append(fields, Field{fid, "starting_health", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 40); ok {
			fields = append(fields, Field{fid, "starting_magicka", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 44); ok {
			fields = append(fields, Field{fid, "starting_stamina", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
	}
	if dnam, ok := rec.Find("DNAM"); ok && len(dnam.Data) >= 4 {
		if v, ok := u32At(dnam.Data, 0); ok {
			fields = append(fields, Field{fid, "default_hair", formid(v), esmscan.KindFormIDRef})
		}
	}
	return fields
}

func decodeTerminal(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	if dnam, ok := rec.Find("DNAM"); ok && len(dnam.Data) > 1 {
		fields = append(fields, Field{fid, "terminal_header", binreader.TrimString(dnam.Data), esmscan.KindString})
	}
	for i, btxt := range rec.FindAll("BTXT") {
		if len(btxt.Data) <= 1 {
			continue
		}
		fields = append(fields, Field{fid, fmt.Sprintf("menu_item_%d", i), binreader.TrimString(btxt.Data), esmscan.KindString})
	}
	for i, itxt := range rec.FindAll("ITXT") {
		if len(itxt.Data) <= 1 {
			continue
		}
		fields = append(fields, Field{fid, fmt.Sprintf("item_text_%d", i), binreader.TrimString(itxt.Data), esmscan.KindString})
	}
	return fields
}

func decodeActorValue(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	if anam, ok := rec.Find("ANAM"); ok && len(anam.Data) > 1 {
		fields = append(fields, Field{fid, "abbreviation", binreader.TrimString(anam.Data), esmscan.KindString})
	}
	if avfl, ok := rec.Find("AVFL"); ok && len(avfl.Data) >= 4 {
		if v, ok := f32At(avfl.Data, 0); ok {
			fields = append(fields, Field{fid, "default_value", fmt.Sprintf("%.4f", v), esmscan.KindFloat})
		}
	}
	if data, ok := rec.Find("DATA"); ok && len(data.Data) >= 4 {
		if v, ok := u32At(data.Data, 0); ok {
			fields = append(fields, Field{fid, "avif_flags", fmt.Sprintf("0x%08X", v), esmscan.KindFlags})
		}
	}
	return fields
}

func decodeActivator(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	if fnam, ok := rec.Find("FNAM"); ok && len(fnam.Data) >= 2 {
		if v, ok := u16At(fnam.Data, 0); ok {
			fields = append(fields, Field{fid, "activator_flags", fmt.Sprintf("0x%04X", v), esmscan.KindFlags})
		}
	}
	if wnam, ok := rec.Find("WNAM"); ok && len(wnam.Data) >= 4 {
		if v, ok := u32At(wnam.Data, 0); ok {
			fields = append(fields, Field{fid, "water_type", formid(v), esmscan.KindFormIDRef})
		}
	}
	if rnam, ok := rec.Find("RNAM"); ok && len(rnam.Data) >= 4 {
		if v, ok := u32At(rnam.Data, 0); ok {
			fields = append(fields, Field{fid, "sound", formid(v), esmscan.KindFormIDRef})
		}
	}
	// VNAM resolves to a localized string; the pipeline layer (which owns
	// the string table) overwrites this placeholder with the looked-up
	// text. Here we record the raw id so that step has something to act on.
	if vnam, ok := rec.Find("VNAM"); ok && len(vnam.Data) >= 4 {
		if v, ok := u32At(vnam.Data, 0); ok {
			fields = append(fields, Field{fid, "verb_override_string_id", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
	}
	return fields
}

func decodeLoadScreen(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	if nnam, ok := rec.Find("NNAM"); ok && len(nnam.Data) > 1 {
		fields = append(fields, Field{fid, "loading_screen_nif", binreader.TrimString(nnam.Data), esmscan.KindString})
	}
	if onam, ok := rec.Find("ONAM"); ok && len(onam.Data) >= 12 {
		d := onam.Data
		if v, ok := f32At(d, 0); ok {
			fields = append(fields, Field{fid, "rotation_min", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 4); ok {
			fields = append(fields, Field{fid, "rotation_max", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
		if v, ok := f32At(d, 8); ok {
			fields = append(fields, Field{fid, "zoom", fmt.Sprintf("%.2f", v), esmscan.KindFloat})
		}
	}
	return fields
}

func decodeMessage(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	if dnam, ok := rec.Find("DNAM"); ok && len(dnam.Data) >= 4 {
		if v, ok := u32At(dnam.Data, 0); ok {
			fields = append(fields,
				Field{fid, "message_flags", fmt.Sprintf("0x%08X", v), esmscan.KindFlags},
				Field{fid, "is_message_box", fmt.Sprintf("%t", v&0x00000001 != 0), esmscan.KindString},
			)
		}
	}
	if tnam, ok := rec.Find("TNAM"); ok && len(tnam.Data) >= 4 {
		if v, ok := u32At(tnam.Data, 0); ok {
			fields = append(fields, Field{fid, "display_time", fmt.Sprintf("%d", v), esmscan.KindInteger})
		}
	}
	for i, itxt := range rec.FindAll("ITXT") {
		if len(itxt.Data) <= 1 {
			continue
		}
		fields = append(fields, Field{fid, fmt.Sprintf("button_%d", i), binreader.TrimString(itxt.Data), esmscan.KindString})
	}
	return fields
}

func decodeFurniture(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	if fnam, ok := rec.Find("FNAM"); ok && len(fnam.Data) >= 2 {
		if v, ok := u16At(fnam.Data, 0); ok {
			fields = append(fields, Field{fid, "furniture_flags", fmt.Sprintf("0x%04X", v), esmscan.KindFlags})
		}
	}
	if wbdt, ok := rec.Find("WBDT"); ok && len(wbdt.Data) >= 2 {
		fields = append(fields,
			Field{fid, "bench_type", lookupEnum(furnitureBenchType, uint32(wbdt.Data[0])), esmscan.KindEnum},
			Field{fid, "uses_skill", fmt.Sprintf("%d", wbdt.Data[1]), esmscan.KindInteger},
		)
	}
	if knam, ok := rec.Find("KNAM"); ok && len(knam.Data) >= 4 {
		if v, ok := u32At(knam.Data, 0); ok {
			fields = append(fields, Field{fid, "interact_keyword", formid(v), esmscan.KindFormIDRef})
		}
	}
	return fields
}
