package main

import (
	"github.com/zitadel/logging"
)

func main() {
	logging.OnError(New().Execute()).Fatal("command failed")
}
