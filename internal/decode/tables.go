package decode

// Register names indexed by the W bit and the 3-bit REG field.
var regNames = [2][8]string{
	{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"},
	{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di"},
}

// Base-register pairs indexed by the 3-bit R/M field in the memory modes.
// Mod 00 with R/M 110 does not use this table: that combination is the
// direct-address carve-out.
var rmNames = [8]string{"bx + si", "bx + di", "bp + si", "bp + di", "si", "di", "bp", "bx"}

// Segment registers indexed by the 2-bit SG field.
var segmentNames = [4]string{"es", "cs", "ss", "ds"}

// Grouped-family mnemonics, indexed by the opcode-extension field of the
// second byte. The "XXX" slots are encodings the 8086 leaves undefined.
var (
	unary2Names = [4]string{"inc", "dec", "push", "pop"}
	unary3Names = [8]string{"test", "XXX", "not", "neg", "mul", "imul", "div", "idiv"}
	binaryNames = [8]string{"add", "or", "adc", "sbb", "and", "sub", "xor", "cmp"}
	logicNames  = [8]string{"rol", "ror", "rcl", "rcr", "shl", "shr", "XXX", "sar"}
)

// Conditional jumps indexed by the low 4 bits of 0111xxxx.
var jump4Names = [16]string{
	"jo", "jno", "jb", "jnb", "je", "jne", "jbe", "jnbe",
	"js", "jns", "jp", "jnp", "jl", "jnl", "jle", "jnle",
}

// LOOP variants and JCXZ indexed by the low 2 bits of 111000xx.
var jump2Names = [4]string{"loopnz", "loopz", "loop", "jcxz"}

// String operations keyed by the opcode byte shifted right once; the dropped
// W bit picks the b/w suffix. The table serves both the standalone string
// ops and the byte that follows a REP prefix.
var stringOpNames = map[byte]string{
	0b1010010: "movs",
	0b1010011: "cmps",
	0b1010101: "stos",
	0b1010110: "lods",
	0b1010111: "scas",
}

// Fixed one-byte instructions.
var fixedNames = map[byte]string{
	0b11010111: "xlat",
	0b10011111: "lahf",
	0b10011110: "sahf",
	0b10011100: "pushf",
	0b10011101: "popf",
	0b00110111: "aaa",
	0b00100111: "daa",
	0b00111111: "aas",
	0b00101111: "das",
	0b10011000: "cbw",
	0b10011001: "cwd",
	0b11000011: "ret",
	0b11001011: "ret",
	0b11001100: "int",
	0b11001110: "into",
	0b11001111: "iret",
	0b11111000: "clc",
	0b11110101: "cmc",
	0b11111001: "stc",
	0b11111100: "cld",
	0b11111101: "std",
	0b11111010: "cli",
	0b11111011: "sti",
	0b11110100: "hlt",
	0b10011011: "wait",
}
