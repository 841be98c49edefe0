package runner

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DefaultPorts is scanned when no port list is configured.
var DefaultPorts = []int{22, 80, 443, 25, 53, 110, 143, 993, 995}

// ParsePortList parses a comma-separated port list, dropping tokens
// outside 1..65535 with a warning. Invalid tokens are never an error:
// the remaining valid ports are still scanned.
func ParsePortList(raw string, logger *zap.Logger) []int {
	var ports []int
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		port, err := strconv.Atoi(tok)
		if err != nil || port < 1 || port > 65535 {
			logger.Warn("dropping invalid port token", zap.String("token", tok))
			continue
		}
		ports = append(ports, port)
	}
	return ports
}
