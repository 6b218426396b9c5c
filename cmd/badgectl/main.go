// Command badgectl renders templates offline and forwards labels to network
// printers, which is what a kiosk agent does with a label it received.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
