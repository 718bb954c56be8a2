package fritz

import (
	"fmt"
	"strings"
)

// Element ids of the console.
const (
	idPassword      = "uiPass"
	idLoginButton   = "submitLoginBtn"
	idSmartHomeMenu = "sh_menu"
	idDevices       = "sh_dev"
	idControl       = "sh_control"
	idSensorDisplay = "uiNumDisplay:Roomtemp"
	idSensorUp      = "uiNumUp:Roomtemp"
	idSensorDown    = "uiNumDown:Roomtemp"
	idApply         = "uiMainApply"
	idUserMenu      = "blueBarUserMenuIcon"
	idLogout        = "logout"
)

const (
	xpathRowDisplay = ".//span[@class='v-temperature__display']"
	xpathRowButtons = ".//button"

	// index of the stepper buttons within a control row; the first button
	// toggles the device and is not used.
	rowButtonDown = 1
	rowButtonUp   = 2
)

// byID returns a CSS selector matching an id verbatim. Console ids contain
// colons, which would otherwise need escaping.
func byID(id string) string {
	return fmt.Sprintf("[id=%q]", id)
}

// xpathLiteral quotes s as an XPath string literal.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

func deviceButtonXPath(labelFormat, name string) string {
	return fmt.Sprintf("//button[contains(@aria-label,%s)]", xpathLiteral(fmt.Sprintf(labelFormat, name)))
}

func controlRowXPath(name string) string {
	return fmt.Sprintf("//span[contains(text(),%s)]/parent::div/parent::div", xpathLiteral(name))
}
