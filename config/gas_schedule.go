package config

// GasSchedule is the set of prices the virtual machine charges under one set
// of Rules. A schedule is a plain value: the engine copies it at construction
// and never mutates it, so two executions with equal schedules meter
// identically.
type GasSchedule struct {
	// Instruction tiers.
	Zero    uint64
	Base    uint64
	VeryLow uint64
	Low     uint64
	Mid     uint64
	High    uint64
	Ext     uint64

	JumpDest      uint64
	Memory        uint64
	QuadCoeffDiv  uint64
	Copy          uint64
	Keccak256     uint64
	Keccak256Word uint64
	Log           uint64
	LogTopic      uint64
	LogData       uint64
	Exp           uint64
	ExpByte       uint64
	Blockhash     uint64

	Balance     uint64
	ExtcodeSize uint64
	ExtcodeCopy uint64
	ExtcodeHash uint64
	Sload       uint64

	Call              uint64
	CallValueTransfer uint64
	CallNewAccount    uint64
	CallStipend       uint64

	Create       uint64
	Create2      uint64
	CreateData   uint64
	InitCodeWord uint64

	Selfdestruct         uint64
	CreateBySelfdestruct uint64
	SelfdestructRefund   uint64

	SstoreSet    uint64
	SstoreReset  uint64
	SstoreRefund uint64
	SstoreSentry uint64

	ColdAccountAccess uint64
	ColdSload         uint64
	WarmStorageRead   uint64

	RefundQuotient uint64

	// Object format instructions.
	Rjumpi   uint64
	Rjumpv   uint64
	Callf    uint64
	Retf     uint64
	DataLoad uint64

	// CallGasForwarding caps forwarded call gas at all but one 64th of
	// the available gas (EIP-150).
	CallGasForwarding bool
	// ValueTransferNewAccount only charges CallNewAccount when value is
	// sent to an empty account (EIP-161).
	ValueTransferNewAccount bool
	// AccessLists enables warm/cold account and slot pricing (EIP-2929).
	AccessLists bool
	// NetSstore enables net gas metering for SSTORE (EIP-2200).
	NetSstore bool
}

// NewGasSchedule returns the schedule in force under rules.
func NewGasSchedule(rules Rules) GasSchedule {
	gs := GasSchedule{
		Zero:    0,
		Base:    GasQuickStep,
		VeryLow: GasFastestStep,
		Low:     GasFastStep,
		Mid:     GasMidStep,
		High:    GasSlowStep,
		Ext:     GasExtStep,

		JumpDest:      JumpdestGas,
		Memory:        MemoryGas,
		QuadCoeffDiv:  QuadCoeffDiv,
		Copy:          CopyGas,
		Keccak256:     Keccak256Gas,
		Keccak256Word: Keccak256WordGas,
		Log:           LogGas,
		LogTopic:      LogTopicGas,
		LogData:       LogDataGas,
		Exp:           ExpGas,
		ExpByte:       ExpByteFrontier,
		Blockhash:     BlockhashGas,

		Balance:     BalanceGasFrontier,
		ExtcodeSize: ExtcodeSizeGasFrontier,
		ExtcodeCopy: ExtcodeCopyBaseFrontier,
		ExtcodeHash: ExtcodeHashGas,
		Sload:       SloadGasFrontier,

		Call:              CallGasFrontier,
		CallValueTransfer: CallValueTransferGas,
		CallNewAccount:    CallNewAccountGas,
		CallStipend:       CallStipend,

		Create:     CreateGas,
		Create2:    Create2Gas,
		CreateData: CreateDataGas,

		SelfdestructRefund: SelfdestructRefundGas,

		SstoreSet:    SstoreSetGas,
		SstoreReset:  SstoreResetGas,
		SstoreRefund: SstoreRefundGas,

		RefundQuotient: RefundQuotient,
	}
	if rules.IsEIP150 {
		gs.ExpByte = ExpByteEIP158
		gs.Balance = BalanceGasEIP150
		gs.ExtcodeSize = ExtcodeSizeGasEIP150
		gs.ExtcodeCopy = ExtcodeCopyBaseEIP150
		gs.Sload = SloadGasEIP150
		gs.Call = CallGasEIP150
		gs.Selfdestruct = SelfdestructGasEIP150
		gs.CreateBySelfdestruct = CreateBySelfdestructGas
		gs.CallGasForwarding = true
		gs.ValueTransferNewAccount = true
	}
	if rules.IsLondon {
		// Account and slot reads are priced by the access list; the
		// constant part is the warm cost.
		gs.Balance = WarmStorageReadCostEIP2929
		gs.ExtcodeSize = WarmStorageReadCostEIP2929
		gs.ExtcodeCopy = WarmStorageReadCostEIP2929
		gs.ExtcodeHash = WarmStorageReadCostEIP2929
		gs.Sload = 0
		gs.Call = WarmStorageReadCostEIP2929
		gs.ColdAccountAccess = ColdAccountAccessCostEIP2929
		gs.ColdSload = ColdSloadCostEIP2929
		gs.WarmStorageRead = WarmStorageReadCostEIP2929
		gs.SstoreSentry = SstoreSentryGasEIP2200
		gs.SstoreReset = SstoreResetGas - ColdSloadCostEIP2929
		gs.SstoreRefund = SstoreClearsScheduleRefundEIP3529
		gs.SelfdestructRefund = 0
		gs.RefundQuotient = RefundQuotientEIP3529
		gs.AccessLists = true
		gs.NetSstore = true
	}
	if rules.IsShanghai {
		gs.InitCodeWord = InitCodeWordGas
	}
	if rules.IsEOF {
		gs.Rjumpi = RjumpiGas
		gs.Rjumpv = RjumpvGas
		gs.Callf = CallfGas
		gs.Retf = RetfGas
		gs.DataLoad = DataLoadGas
	}
	return gs
}

// MemoryCost is the total price of an active memory region of words
// 32-byte words.
func (gs *GasSchedule) MemoryCost(words uint64) uint64 {
	return words*gs.Memory + words*words/gs.QuadCoeffDiv
}
