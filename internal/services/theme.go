package services

import (
	"fmt"
	"math"

	"tripdesk/internal/common"
	"tripdesk/internal/models"

	"github.com/lucasb-eyer/go-colorful"
)

// HexToHSL converts #rrggbb to whole-number hue degrees and saturation/lightness percentages.
func HexToHSL(hex string) (models.HSL, error) {
	if err := common.ValidateHexColor(hex, "color"); err != nil {
		return models.HSL{}, err
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return models.HSL{}, common.NewValidationError("color", err.Error())
	}
	h, s, l := c.Hsl()
	out := models.HSL{
		H: int(math.Round(h)) % 360,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
	out.CSS = fmt.Sprintf("%d %d%% %d%%", out.H, out.S, out.L)
	return out, nil
}

// ThemeFor derives the UI theme of an organization.
func ThemeFor(org *models.Organization) (*models.Theme, error) {
	primary, err := HexToHSL(org.PrimaryColor)
	if err != nil {
		return nil, err
	}
	secondary, err := HexToHSL(org.SecondaryColor)
	if err != nil {
		return nil, err
	}
	tertiary, err := HexToHSL(org.TertiaryColor)
	if err != nil {
		return nil, err
	}
	return &models.Theme{Primary: primary, Secondary: secondary, Tertiary: tertiary}, nil
}
