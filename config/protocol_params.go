package config

const (
	StackLimit       uint64 = 1024 // Maximum size of VM stack allowed.
	CallCreateDepth  uint64 = 1024 // Maximum depth of call/create stack.
	ReturnStackLimit uint64 = 1024 // Maximum depth of the function return stack.

	MaxCodeSize     = 24576           // Maximum bytecode to permit for a contract
	MaxInitCodeSize = 2 * MaxCodeSize // Maximum initcode to permit in a creation transaction and create instructions

	InitialBaseFee = 1000000000 // Initial base fee for EIP-1559 blocks.
)

// Gas tiers.
const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20
)

const (
	MemoryGas    uint64 = 3   // Times the address of the (highest referenced byte in memory + 1).
	QuadCoeffDiv uint64 = 512 // Divisor for the quadratic particle of the memory cost equation.
	CopyGas      uint64 = 3   // Per word of data copied.

	JumpdestGas      uint64 = 1
	Keccak256Gas     uint64 = 30
	Keccak256WordGas uint64 = 6
	InitCodeWordGas  uint64 = 2 // Once per word of the init code when creating a contract.
	LogGas           uint64 = 375
	LogTopicGas      uint64 = 375
	LogDataGas       uint64 = 8
	ExpGas           uint64 = 10
	ExpByteFrontier  uint64 = 10
	ExpByteEIP158    uint64 = 50
	BlockhashGas     uint64 = 20

	CreateGas               uint64 = 32000
	Create2Gas              uint64 = 32000
	CreateDataGas           uint64 = 200 // Per byte of deployed code.
	CallStipend             uint64 = 2300
	CallValueTransferGas    uint64 = 9000
	CallNewAccountGas       uint64 = 25000
	CreateBySelfdestructGas uint64 = 25000

	BalanceGasFrontier      uint64 = 20
	BalanceGasEIP150        uint64 = 400
	ExtcodeSizeGasFrontier  uint64 = 20
	ExtcodeSizeGasEIP150    uint64 = 700
	ExtcodeCopyBaseFrontier uint64 = 20
	ExtcodeCopyBaseEIP150   uint64 = 700
	ExtcodeHashGas          uint64 = 400
	SloadGasFrontier        uint64 = 50
	SloadGasEIP150          uint64 = 200
	CallGasFrontier         uint64 = 40
	CallGasEIP150           uint64 = 700
	SelfdestructGasEIP150   uint64 = 5000

	SstoreSetGas    uint64 = 20000 // Once per SSTORE operation from clean zero to non-zero.
	SstoreResetGas  uint64 = 5000  // Once per SSTORE operation from clean non-zero to something else.
	SstoreClearGas  uint64 = 5000  // Once per SSTORE operation from clean non-zero to zero.
	SstoreRefundGas uint64 = 15000 // Once per SSTORE operation for clearing an originally existing storage slot.

	SstoreSentryGasEIP2200 uint64 = 2300 // Minimum gas required to be present for an SSTORE call, not consumed.

	ColdAccountAccessCostEIP2929 uint64 = 2600 // COLD_ACCOUNT_ACCESS_COST
	ColdSloadCostEIP2929         uint64 = 2100 // COLD_SLOAD_COST
	WarmStorageReadCostEIP2929   uint64 = 100  // WARM_STORAGE_READ_COST

	// SSTORE_CLEARS_SCHEDULE of EIP-3529: SSTORE_RESET_GAS - COLD_SLOAD_COST + ACCESS_LIST_STORAGE_KEY_COST
	SstoreClearsScheduleRefundEIP3529 uint64 = SstoreResetGas - ColdSloadCostEIP2929 + 1900

	SelfdestructRefundGas uint64 = 24000 // Refunded following a selfdestruct operation.

	RjumpiGas   uint64 = 4
	RjumpvGas   uint64 = 4
	CallfGas    uint64 = 5
	RetfGas     uint64 = 3
	DataLoadGas uint64 = 4

	RefundQuotient        uint64 = 2
	RefundQuotientEIP3529 uint64 = 5
)

// Precompiled contract gas prices.
const (
	EcrecoverGas        uint64 = 3000
	Sha256BaseGas       uint64 = 60
	Sha256PerWordGas    uint64 = 12
	Ripemd160BaseGas    uint64 = 600
	Ripemd160PerWordGas uint64 = 120
	IdentityBaseGas     uint64 = 15
	IdentityPerWordGas  uint64 = 3
)
