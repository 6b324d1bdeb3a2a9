package decode

import "fmt"

// lookupEnum renders value as the human-readable name in table, falling
// back to its decimal form for values the table does not name.
func lookupEnum(table map[uint32]string, value uint32) string {
	if name, ok := table[value]; ok {
		return name
	}
	return fmt.Sprintf("%d", value)
}

var weaponAnimationType = map[uint32]string{
	0: "hand_to_hand", 1: "melee_1h", 2: "melee_2h", 3: "pistol_ballistic",
	4: "pistol_automatic", 5: "rifle_ballistic", 6: "rifle_automatic",
	7: "shotgun", 8: "thrown", 9: "mine", 10: "bow", 11: "crossbow",
	12: "cryolator",
}

var weaponSoundLevel = map[uint32]string{
	0: "loud", 1: "normal", 2: "silent", 3: "very_loud",
}

var magicEffectArchetype = map[uint32]string{
	0: "value_modifier", 1: "script", 2: "dispel", 3: "cure_disease",
	4: "absorb", 5: "dual_value_modifier", 6: "calm", 7: "demoralize",
	8: "frenzy", 9: "disarm", 10: "command_summoned", 11: "invisibility",
	12: "light", 13: "darkness", 14: "nighteye", 15: "lock", 16: "open",
	17: "bound_weapon", 18: "summon_creature", 19: "detect_life",
	20: "telekinesis", 21: "paralysis", 22: "reanimate", 23: "soul_trap",
	24: "turn_undead", 25: "guide", 26: "werewolf_feed", 27: "cure_paralysis",
	28: "cure_addiction", 29: "cure_poison", 30: "concussion", 31: "stimpak",
	32: "accumulate_magnitude", 33: "stagger", 34: "peak_value_modifier",
	35: "cloak", 36: "werewolf", 37: "slow_time", 38: "rally",
	39: "enhance_weapon", 40: "spawn_hazard", 41: "etherealize", 42: "banish",
	43: "spawn_scripted_ref", 44: "disguise", 45: "grab_actor", 46: "vampire_lord",
}

// castingType serves MGEF/ENCH/SPEL cast_type fields.
var castingType = map[uint32]string{
	0: "constant_effect", 1: "fire_and_forget", 2: "concentration",
}

// targetType serves MGEF delivery and ENCH/SPEL target_type fields.
var targetType = map[uint32]string{
	0: "self", 1: "touch", 2: "aimed", 3: "target_actor", 4: "target_location",
}

var spellType = map[uint32]string{
	0: "spell", 1: "disease", 2: "power", 3: "lesser_power", 4: "ability", 5: "addiction",
}

var enchantType = map[uint32]string{
	6: "enchantment", 12: "staff_enchantment",
}

var omodValueType = map[uint32]string{
	0: "int", 1: "float", 2: "bool", 3: "formid_int", 4: "formid_float", 5: "enum",
}

var omodFunctionType = map[uint32]string{
	0: "set", 1: "mul_add", 2: "add",
}

var factionReaction = map[uint32]string{
	0: "neutral", 1: "enemy", 2: "ally", 3: "friend",
}

var questType = map[uint32]string{
	0: "none", 1: "main_quest", 2: "side_quest", 3: "misc", 4: "daily",
	5: "event", 6: "dungeon", 7: "challenge", 8: "world_event",
}

var furnitureBenchType = map[uint32]string{
	0: "none", 1: "create_object", 2: "smithing_armor", 3: "enchanting",
	4: "alchemy", 5: "smithing_weapon", 6: "power_armor",
}

// conditionRunOn is the CTDA run_on field's enum. Fallout's condition
// system evaluates a function against one of a small set of subjects.
var conditionRunOn = map[uint32]string{
	0: "subject", 1: "target", 2: "reference", 3: "combat_target", 4: "linked_reference",
}

// conditionFunctionName is a deliberately partial table of the condition
// function indices most commonly seen in practice; an index absent from
// this table is rendered as its decimal form (the spec's own fallback
// rule), not an error.
var conditionFunctionName = map[uint32]string{
	1:  "GetDistance",
	5:  "GetLocked",
	8:  "GetDead",
	14: "GetPos",
	15: "GetAngle",
	18: "GetStartingPos",
	19: "GetStartingAngle",
	21: "GetSecondsPassed",
	24: "GetValue",
	32: "GetQuestRunning",
	36: "GetCurrentTime",
	37: "GetScale",
	38: "GetLineOfSight",
	41: "GetInSameCell",
	42: "GetDisabled",
	58: "GetIsID",
	69: "GetIsPlayableRace",
	72: "GetIsReference",
	91: "GetGlobalValue",
}
