package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"keyhook/combo"
	"keyhook/native"
)

var modifierCodes = []struct {
	mod  combo.Modifier
	code combo.Code
}{
	{combo.ModCtrl, combo.KeyLCtrl},
	{combo.ModAlt, combo.KeyLAlt},
	{combo.ModShift, combo.KeyLShift},
	{combo.ModMeta, combo.KeyLMeta},
}

// keyCodes lists the codes a combination is typed with: held modifiers
// first, then the target key.
func keyCodes(c combo.Combination) []combo.Code {
	var codes []combo.Code
	for _, m := range modifierCodes {
		if c.Has(m.mod) {
			codes = append(codes, m.code)
		}
	}
	return append(codes, c.Target())
}

// driveFake feeds a native.Fake from line commands on r until QUIT or EOF:
//
//	PRESS <keys>    press modifiers then the key
//	RELEASE <keys>  release the key then modifiers
//	TAP <keys>      PRESS followed by RELEASE
//	WAIT <n>        block until n actions have fired in total
//	SLEEP <ms>
//	QUIT
func driveFake(r io.Reader, fk *native.Fake, fired func() int64, errOut io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToUpper(cmd) {
		case "QUIT":
			return
		case "PRESS", "RELEASE", "TAP":
			c, err := combo.Parse(arg)
			if err != nil {
				fmt.Fprintf(errOut, "fake: %v\n", err)
				continue
			}
			codes := keyCodes(c)
			switch strings.ToUpper(cmd) {
			case "PRESS":
				press(fk, codes)
			case "RELEASE":
				release(fk, codes)
			default:
				press(fk, codes)
				release(fk, codes)
			}
		case "WAIT":
			n, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				fmt.Fprintf(errOut, "fake: WAIT %q: %v\n", arg, err)
				continue
			}
			deadline := time.Now().Add(5 * time.Second)
			for fired() < n && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			if fired() < n {
				fmt.Fprintf(errOut, "fake: WAIT %d timed out at %d\n", n, fired())
			}
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		default:
			fmt.Fprintf(errOut, "fake: unknown command %q\n", line)
		}
	}
}

func press(fk *native.Fake, codes []combo.Code) {
	for _, c := range codes {
		fk.Press(c)
	}
}

func release(fk *native.Fake, codes []combo.Code) {
	for i := len(codes) - 1; i >= 0; i-- {
		fk.Release(codes[i])
	}
}
