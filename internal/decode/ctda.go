package decode

import (
	"fmt"

	"github.com/esmscan/esmscan"
	"github.com/esmscan/esmscan/internal/record"
)

const conditionSize = 32

// conditionFields walks rec's subrecords for CTDA condition blocks,
// pairing each with a following CIS1/CIS2 string override when present,
// and emits the condition_<i>_* field set plus a condition_count field.
func conditionFields(rec *record.Record) []Field {
	var fields []Field
	fid := rec.FormID
	index := 0

	subs := rec.Subrecords
	for i := 0; i < len(subs); i++ {
		if subs[i].Tag.String() != "CTDA" {
			continue
		}
		c, ok := parseCondition(subs[i].Data)
		if !ok {
			continue
		}

		var param1String, param2String string
		j := i + 1
		if j < len(subs) && subs[j].Tag.String() == "CIS1" {
			param1String = trimmed(subs[j].Data)
			j++
		}
		if j < len(subs) && subs[j].Tag.String() == "CIS2" {
			param2String = trimmed(subs[j].Data)
		}

		fields = append(fields, c.fields(fid, index, param1String, param2String)...)
		index++
	}

	fields = append(fields, Field{fid, "condition_count", fmt.Sprintf("%d", index), esmscan.KindInteger})
	return fields
}

type condition struct {
	opByte       uint8
	comparison   float32
	functionIdx  uint16
	param1       uint32
	param2       uint32
	runOn        uint32
	reference    uint32
	raw          []byte
}

func parseCondition(data []byte) (condition, bool) {
	if len(data) < conditionSize {
		return condition{}, false
	}
	opByte, ok := u8At(data, 0)
	if !ok {
		return condition{}, false
	}
	comparison, ok := f32At(data, 4)
	if !ok {
		return condition{}, false
	}
	functionIdx, ok := u16At(data, 8)
	if !ok {
		return condition{}, false
	}
	param1, ok := u32At(data, 12)
	if !ok {
		return condition{}, false
	}
	param2, ok := u32At(data, 16)
	if !ok {
		return condition{}, false
	}
	runOn, ok := u32At(data, 20)
	if !ok {
		return condition{}, false
	}
	reference, ok := u32At(data, 24)
	if !ok {
		return condition{}, false
	}
	return condition{
		opByte:      opByte,
		comparison:  comparison,
		functionIdx: functionIdx,
		param1:      param1,
		param2:      param2,
		runOn:       runOn,
		reference:   reference,
		raw:         data[:conditionSize],
	}, true
}

// operator derives the comparison operator from the op byte's low three
// bits; an unrecognized code falls back to equality.
func (c condition) operator() string {
	switch c.opByte & 0x07 {
	case 0:
		return "=="
	case 1:
		return "!="
	case 2:
		return ">"
	case 3:
		return ">="
	case 4:
		return "<"
	case 5:
		return "<="
	default:
		return "=="
	}
}

func (c condition) fields(fid esmscan.FormID, i int, param1String, param2String string) []Field {
	prefix := fmt.Sprintf("condition_%d", i)
	functionName := lookupEnum(conditionFunctionName, uint32(c.functionIdx))

	fields := []Field{
		{fid, prefix + "_raw", fmt.Sprintf("%X", c.raw), esmscan.KindString},
		{fid, prefix + "_function", fmt.Sprintf("%d", c.functionIdx), esmscan.KindInteger},
		{fid, prefix + "_function_name", functionName, esmscan.KindEnum},
		{fid, prefix + "_operator", c.operator(), esmscan.KindString},
		{fid, prefix + "_comparison", fmt.Sprintf("%.6f", c.comparison), esmscan.KindFloat},
		{fid, prefix + "_param1_hex", formid(c.param1), esmscan.KindFormIDRef},
		{fid, prefix + "_param2_hex", formid(c.param2), esmscan.KindFormIDRef},
		{fid, prefix + "_run_on", lookupEnum(conditionRunOn, c.runOn), esmscan.KindEnum},
	}
	if param1String != "" {
		fields = append(fields, Field{fid, prefix + "_param1_string", param1String, esmscan.KindString})
	}
	if param2String != "" {
		fields = append(fields, Field{fid, prefix + "_param2_string", param2String, esmscan.KindString})
	}
	if c.reference != 0 && c.reference != 0xFFFFFFFF {
		fields = append(fields, Field{fid, prefix + "_reference", formid(c.reference), esmscan.KindFormIDRef})
	}

	summary := fmt.Sprintf("%s %s %.6f", functionName, c.operator(), c.comparison)
	fields = append(fields, Field{fid, prefix + "_summary", summary, esmscan.KindString})
	return fields
}

func trimmed(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
