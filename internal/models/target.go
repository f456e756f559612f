package models

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultOSCAddress is the OSC address pattern payloads are sent to
const DefaultOSCAddress = "/battito"

// Target routes a named sound target to an OSC destination
type Target struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Host        string    `gorm:"not null" json:"host"`
	Port        int       `gorm:"not null" json:"port"`
	Address     string    `gorm:"not null;default:'/battito'" json:"address"`
	Subdivision uint32    `gorm:"default:0" json:"subdivision"` // 0 uses the server default
}

var (
	ErrInvalidTargetName = errors.New("target name must be ASCII alphanumeric")
	ErrInvalidTargetHost = errors.New("target host is required")
	ErrInvalidTargetPort = errors.New("target port must be between 1 and 65535")
	ErrInvalidOSCAddress = errors.New("OSC address must start with /")
)

// Validate checks the route before it is stored
func (t *Target) Validate() error {
	if !IsTargetName(t.Name) {
		return ErrInvalidTargetName
	}
	if strings.TrimSpace(t.Host) == "" {
		return ErrInvalidTargetHost
	}
	if t.Port < 1 || t.Port > 65535 {
		return ErrInvalidTargetPort
	}
	if t.Address == "" {
		t.Address = DefaultOSCAddress
	}
	if !strings.HasPrefix(t.Address, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidOSCAddress, t.Address)
	}
	return nil
}

// Destination returns host:port
func (t *Target) Destination() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// IsTargetName reports whether name can prefix a "name $ pattern" line
func IsTargetName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
