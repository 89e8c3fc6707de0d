// Command pin-init generates the bcrypt hash for the PIN_HASH environment
// variable. Pass the PIN as the sole argument or type it when prompted.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"porsi/internal/auth"
)

func main() {
	var pin string
	if len(os.Args) > 1 {
		pin = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "PIN: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			log.Fatalf("read pin: %v", err)
		}
		pin = strings.TrimSpace(line)
	}

	if len(pin) < 4 {
		log.Fatalf("pin must be at least 4 characters")
	}

	hash, err := auth.HashPIN(pin)
	if err != nil {
		log.Fatalf("hash pin: %v", err)
	}

	fmt.Printf("PIN_HASH=%s\n", hash)
}
