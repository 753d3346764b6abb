package regflash

// Log messages. The wording is consumed by log viewers and covered by tests.
const (
	msgIDMatched     = "chip ID matched"
	msgIDMismatch    = "chip ID mismatch"
	msgHalted        = "MCU halted"
	msgReset         = "MCU reset"
	msgResetFailed   = "MCU reset failed"
	msgSectorErased  = "sector erased"
	msgEraseDone     = "erase complete"
	msgPollTimeout   = "status poll timed out"
	msgPageWritten   = "page programmed"
	msgProgramDone   = "program complete"
	msgMismatch      = "read back mismatch"
	msgBlankChecked  = "blank check passed"
	msgPatternPassed = "verify pattern passed"
	msgVerifyDone    = "verify complete"
	msgReadDone      = "read complete"
	msgDumpWritten   = "dump written"
	msgCancelled     = "operation cancelled"
	msgFailed        = "operation failed"
)
