package smd

// ANSI styling applied to rendered lines.
const (
	ColorReset    = "\033[0m"
	ColorTitle    = "\033[1;34m"
	ColorSubtitle = "\033[1;36m"
	ColorBullet   = "\033[1;33m"
	ColorLink     = "\033[1;32m"
	ColorBold     = "\033[1m"
	ColorItalic   = "\033[3m"
	ColorError    = "\033[1;31m"
	ColorPath     = "\033[1;35m"
	ColorSuccess  = "\033[1;92m"
	ColorWarning  = "\033[1;93m"
	ColorCode     = "\033[90m"
	ColorQuote    = "\033[35m"
)
