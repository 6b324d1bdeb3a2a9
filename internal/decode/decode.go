// Package decode implements the type-dispatched subrecord decoder: a
// registry mapping a 4-character record type tag to a function that
// extracts named, typed fields from a record's subrecords. Every offset
// read is bounds-checked against the actual subrecord payload; a
// subrecord shorter than a decoder's required offset simply contributes
// no field, mirroring the record-level parser's "skip, don't crash"
// posture.
package decode

import (
	"fmt"

	"github.com/esmscan/esmscan"
	"github.com/esmscan/esmscan/internal/binreader"
	"github.com/esmscan/esmscan/internal/record"
)

// Field is one decoded (record, name, value, kind) row, ready for
// insertion into the snapshot store's decoded_fields table.
type Field struct {
	FormID esmscan.FormID
	Name   string
	Value  string
	Kind   esmscan.ValueKind
}

type decoderFunc func(rec *record.Record) []Field

// registry maps a record type tag to its decoder. Types absent from this
// map still receive the universal fields and the CTDA condition fields;
// nothing else is emitted for them.
var registry = map[string]decoderFunc{
	"WEAP": decodeWeapon,
	"ARMO": decodeArmor,
	"ALCH": decodeAlchemy,
	"NPC_": decodeNPC,
	"QUST": decodeQuest,
	"COBJ": decodeCraftingRecipe,
	"AMMO": decodeAmmo,
	"MISC": decodeValueWeight,
	"BOOK": decodeValueWeight,
	"KEYM": decodeValueWeight,
	"GMST": decodeGameSetting,
	"GLOB": decodeGlobal,
	"CONT": decodeContainer,
	"FLOR": decodeFlora,
	"LVLI": decodeLeveledList,
	"LVLN": decodeLeveledList,
	"PERK": decodePerk,
	"ENCH": decodeMagicItem,
	"SPEL": decodeMagicItem,
	"MGEF": decodeMagicEffect,
	"OMOD": decodeObjectMod,
	"FACT": decodeFaction,
	"RACE": decodeRace,
	"TERM": decodeTerminal,
	"AVIF": decodeActorValue,
	"ACTI": decodeActivator,
	"LSCR": decodeLoadScreen,
	"MESG": decodeMessage,
	"FURN": decodeFurniture,
}

// Decode produces every decoded field for rec: the type-specific fields
// from registry, if rec's type has an entry, followed by the universal
// fields every record type carries.
func Decode(rec *record.Record) []Field {
	var fields []Field
	if fn, ok := registry[rec.Tag.String()]; ok {
		fields = append(fields, fn(rec)...)
	}
	fields = append(fields, universalFields(rec)...)
	fields = append(fields, conditionFields(rec)...)
	return fields
}

// universalFields extracts the fields every record type may carry
// regardless of its decoder: icon paths, model path, and keyword
// references.
func universalFields(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID

	if icon, ok := rec.Find("ICON"); ok && len(icon.Data) > 1 {
		fields = append(fields, Field{fid, "icon", binreader.TrimString(icon.Data), esmscan.KindString})
	}
	if mico, ok := rec.Find("MICO"); ok && len(mico.Data) > 1 {
		fields = append(fields, Field{fid, "icon_small", binreader.TrimString(mico.Data), esmscan.KindString})
	}
	if modl, ok := rec.Find("MODL"); ok && len(modl.Data) > 1 {
		fields = append(fields, Field{fid, "model", binreader.TrimString(modl.Data), esmscan.KindString})
	}
	if kwda, ok := rec.Find("KWDA"); ok && len(kwda.Data) >= 4 {
		for i := 0; i+4 <= len(kwda.Data); i += 4 {
			kid, err := binreader.U32le(kwda.Data, i)
			if err != nil {
				break
			}
			fields = append(fields, Field{fid, fmt.Sprintf("keyword_%d", i/4), formid(kid), esmscan.KindFormIDRef})
		}
	}
	return fields
}

func formid(v uint32) string { return fmt.Sprintf("0x%08X", v) }

func u8At(b []byte, off int) (uint8, bool) {
	v, err := binreader.U8(b, off)
	return v, err == nil
}

func u16At(b []byte, off int) (uint16, bool) {
	v, err := binreader.U16le(b, off)
	return v, err == nil
}

func u32At(b []byte, off int) (uint32, bool) {
	v, err := binreader.U32le(b, off)
	return v, err == nil
}

func i32At(b []byte, off int) (int32, bool) {
	v, err := binreader.I32le(b, off)
	return v, err == nil
}

func f32At(b []byte, off int) (float32, bool) {
	v, err := binreader.F32le(b, off)
	return v, err == nil
}
