package availexpr

import "cfgmid/internal/ir"

// Transfer applies one instruction's effect to the set: generate nodes for
// every pure sub-expression it consumes, then kill whatever it (re)defines
// — mirroring process_instruction in available_expressions.rs. Operands are
// generated before any Res is killed, so `x = x + 1` still finds the
// pre-update `x` available when generating its right-hand side.
func Transfer(instr ir.Instr, s *Set) {
	for _, e := range ir.InstrOperands(instr) {
		s.Gen(e)
	}

	switch in := instr.(type) {
	case ir.Set:
		s.Kill(in.Res)
	case ir.PushMemory:
		if in.Res != nil {
			s.Kill(*in.Res)
		}
	case ir.PopMemory:
		s.Kill(in.Res)
	case ir.LoadStorage:
		s.Kill(in.Res)
	case ir.PushStorage:
		if in.Res != nil {
			s.Kill(*in.Res)
		}
	case ir.PopStorage:
		if in.Res != nil {
			s.Kill(*in.Res)
		}
	case ir.Call:
		for _, r := range in.Res {
			s.Kill(r)
		}
	case ir.ExternalCall:
		if in.Success != nil {
			s.Kill(*in.Success)
		}
	case ir.ValueTransfer:
		if in.Success != nil {
			s.Kill(*in.Success)
		}
	case ir.ConstructorInstr:
		s.Kill(in.Res)
		if in.Success != nil {
			s.Kill(*in.Success)
		}
	case ir.Phi:
		s.Kill(in.Res)
	}
}
