package useragent

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Parser wraps the uap-go User-Agent parser with a keyword fallback so click
// rows always get a device type even when the regexes file is missing.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo represents parsed device information
type DeviceInfo struct {
	DeviceType string // mobile, tablet, desktop, bot, unknown
	Browser    string
	OS         string
}

var (
	globalParser *Parser
	once         sync.Once
)

// NewParser creates a parser from a uap-core regexes file.
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	regexBytes, err := os.ReadFile(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regexes file %s: %w", regexFilePath, err)
	}

	parser, err := uaparser.NewFromBytes(regexBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized", zap.String("regexes_file", regexFilePath))

	return &Parser{parser: parser, log: log}, nil
}

// InitGlobalParser initializes the global parser instance.
func InitGlobalParser(regexFilePath string, log *zap.Logger) error {
	var err error
	once.Do(func() {
		globalParser, err = NewParser(regexFilePath, log)
	})
	return err
}

// GetGlobalParser returns the singleton parser, or nil when initialization
// failed and callers should fall back to DetectDeviceType.
func GetGlobalParser() *Parser {
	return globalParser
}

// ParseUserAgent parses a User-Agent string into device information.
func (p *Parser) ParseUserAgent(userAgent string) *DeviceInfo {
	if userAgent == "" {
		return &DeviceInfo{DeviceType: "unknown", Browser: "unknown", OS: "unknown"}
	}

	client := p.parser.Parse(userAgent)

	info := &DeviceInfo{
		Browser: orUnknown(client.UserAgent.Family),
		OS:      orUnknown(client.Os.Family),
	}
	info.DeviceType = p.deviceType(client, userAgent)
	return info
}

func (p *Parser) deviceType(client *uaparser.Client, userAgent string) string {
	if client.Device.Family == "Spider" || containsAny(userAgent, "bot", "spider", "crawler") {
		return "bot"
	}

	family := strings.ToLower(client.Device.Family)
	osFamily := strings.ToLower(client.Os.Family)

	switch {
	case strings.Contains(family, "ipad") || strings.Contains(family, "tablet"):
		return "tablet"
	case strings.Contains(family, "iphone") || strings.Contains(osFamily, "android") || strings.Contains(osFamily, "ios"):
		return "mobile"
	case family == "other" || family == "":
		return DetectDeviceType(userAgent)
	default:
		return "desktop"
	}
}

// DetectDeviceType is the keyword fallback used when no parser is available.
func DetectDeviceType(userAgent string) string {
	switch {
	case containsAny(userAgent, "bot", "spider", "crawler"):
		return "bot"
	case containsAny(userAgent, "tablet", "ipad", "kindle", "silk", "playbook"):
		return "tablet"
	case containsAny(userAgent, "mobile", "android", "iphone", "ipod", "blackberry", "windows phone", "opera mini"):
		return "mobile"
	case userAgent == "":
		return "unknown"
	default:
		return "desktop"
	}
}

func containsAny(s string, keywords ...string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if s == "" || s == "Other" {
		return "unknown"
	}
	return s
}
