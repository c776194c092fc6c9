// Package rpi implements the device contracts against Raspberry Pi
// hardware: an MFRC522 RFID reader on SPI, an SSD1306/SH1106-class OLED on
// I2C, and the rpicam-still camera tool.
package rpi

import (
	"fmt"

	"periph.io/x/host/v3"
)

// Init loads the host's GPIO/SPI/I2C drivers. Must be called once before
// opening any device.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}
