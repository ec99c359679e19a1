// Package vendorlookup guesses a manufacturer from a MAC OUI prefix. The
// table covers the hardware commonly found on retail POS networks; anything
// else reports Unknown.
package vendorlookup

import "strings"

var ouiVendors = map[string]string{
	"B8:27:EB": "Raspberry Pi", "DC:A6:32": "Raspberry Pi", "E4:5F:01": "Raspberry Pi", "D8:3A:DD": "Raspberry Pi",
	"00:0C:29": "VMware", "00:50:56": "VMware", "00:15:5D": "Microsoft",
	"00:1B:5F": "Epson", "00:26:AB": "Epson",
	"00:1D:60": "Ingenico", "F0:9F:C2": "Ubiquiti", "74:83:C2": "Ubiquiti", "18:E8:29": "Ubiquiti",
	"00:17:F2": "Apple", "BC:54:36": "Star Micronics",
	"00:15:94": "Bixolon", "00:80:77": "Brother", "3C:2A:F4": "Brother",
	"00:04:88": "Datalogic", "00:14:22": "Dell", "00:0E:57": "ELO",
	"00:10:20": "Honeywell", "3C:D9:2B": "HP", "00:05:C9": "LG",
	"00:00:F0": "Panasonic", "00:23:47": "Pax", "00:0F:7C": "Sam4s",
	"00:07:AB": "Samsung", "44:65:0D": "Square", "1C:9D:C2": "Toast",
	"00:00:39": "Toshiba", "00:22:58": "Touch Dynamic", "00:09:1F": "Verifone", "00:A0:F8": "Zebra",
}

// Guess returns the vendor for a MAC's OUI prefix, or "Unknown".
func Guess(mac string) string {
	if len(mac) < 8 {
		return "Unknown"
	}
	prefix := strings.ToUpper(mac[:8])
	if v, ok := ouiVendors[prefix]; ok {
		return v
	}
	return "Unknown"
}
