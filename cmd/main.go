package main

import (
	"os"
	_ "time/tzdata"

	"github.com/yungbote/sololev-backend/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
