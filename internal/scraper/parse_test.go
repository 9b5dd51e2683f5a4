package scraper

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const characterPageFixture = `
<html><body>
<table>
  <tr><td colspan="2">Character Information</td></tr>
  <tr class="hover"><td>Name:</td><td>Karius</td></tr>
  <tr class="hover"><td>Sex:</td><td>male</td></tr>
  <tr class="hover"><td>Vocation:</td><td>Elite Knight</td></tr>
  <tr class="hover"><td>Level:</td><td>45</td></tr>
  <tr class="hover"><td>World:</td><td>Tibiantis</td></tr>
  <tr class="hover"><td>Residence:</td><td>Thais</td></tr>
  <tr class="hover"><td>Guild Membership:</td><td>Leader of Honor</td></tr>
  <tr class="hover"><td>Last Login:</td><td>Apr 06 2025, 21:06:54 CEST</td></tr>
  <tr class="hover"><td>Account Status:</td><td>Premium Account</td></tr>
  <tr class="hover"><td>Fansite Badge:</td><td>ignored new label</td></tr>
</table>
<table>
  <tr><td colspan="2">Character Deaths</td></tr>
  <tr class="hover"><td>Apr 06 2025, 20:00:00 CEST</td><td>Killed at Level 45 by Evil Bob.</td></tr>
  <tr class="hover"><td>Apr 05 2025, 10:30:00 CEST</td><td>Died at Level 44 of life loss.</td></tr>
  <tr class="hover"><td>Jan 12 2025, 09:00:00 CET</td><td>Killed at Level 40 by Orc and Evil Alice.</td></tr>
</table>
</body></html>`

func TestParseCharacterPage(t *testing.T) {
	page, err := parseCharacterPage(strings.NewReader(characterPageFixture))
	require.NoError(t, err)

	c := page.Character
	assert.Equal(t, "Karius", c.Name)
	require.NotNil(t, c.Level)
	assert.Equal(t, 45, *c.Level)
	require.NotNil(t, c.Vocation)
	assert.Equal(t, "Elite Knight", *c.Vocation)
	require.NotNil(t, c.GuildMembership)
	assert.Equal(t, "Leader of Honor", *c.GuildMembership)
	require.NotNil(t, c.LastLogin)
	assert.Equal(t, 2025, c.LastLogin.Year())
	assert.Equal(t, time.April, c.LastLogin.Month())
}

func TestParseCharacterPageDeathsRoundTrip(t *testing.T) {
	page, err := parseCharacterPage(strings.NewReader(characterPageFixture))
	require.NoError(t, err)

	// Every death row yields exactly one event, in page order.
	require.Len(t, page.Deaths, 3)
	assert.Equal(t, "Killed at Level 45 by Evil Bob.", page.Deaths[0].Killer)
	assert.Equal(t, "Died at Level 44 of life loss.", page.Deaths[1].Killer)
	assert.Equal(t, "Killed at Level 40 by Orc and Evil Alice.", page.Deaths[2].Killer)
	require.NotNil(t, page.Deaths[0].Time)
	require.NotNil(t, page.Deaths[2].Time)
}

func TestParseCharacterPageNotFound(t *testing.T) {
	// No labeled rows at all means the name did not resolve.
	fixture := `<html><body><table><tr><td>Could not find character.</td></tr></table></body></html>`
	page, err := parseCharacterPage(strings.NewReader(fixture))
	assert.Nil(t, page)
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestParseCharacterPageNonNumericLevel(t *testing.T) {
	fixture := `
<html><body><table>
  <tr class="hover"><td>Name:</td><td>Karius</td></tr>
  <tr class="hover"><td>Level:</td><td>unknown</td></tr>
  <tr class="hover"><td>Vocation:</td><td>Knight</td></tr>
</table></body></html>`

	page, err := parseCharacterPage(strings.NewReader(fixture))
	require.NoError(t, err)

	// Level downgrades to unknown; the rest of the record stays usable.
	assert.Nil(t, page.Character.Level)
	assert.Equal(t, "Karius", page.Character.Name)
	require.NotNil(t, page.Character.Vocation)
	assert.Equal(t, "Knight", *page.Character.Vocation)
}

func TestParseCharacterPageNoDeathsRegion(t *testing.T) {
	fixture := `
<html><body><table>
  <tr class="hover"><td>Name:</td><td>Karius</td></tr>
</table></body></html>`

	page, err := parseCharacterPage(strings.NewReader(fixture))
	require.NoError(t, err)
	assert.Empty(t, page.Deaths)
}

func TestParseOnlinePlayers(t *testing.T) {
	fixture := `
<html><body>
<table class="mytab long">
  <tr><td colspan="6">Players Online</td></tr>
  <tr><td>#</td><td>Name</td><td>Vocation</td><td>Sex</td><td>Level</td><td>Outfit</td></tr>
  <tr><td>1</td><td><a href="#">Karius</a></td><td>Elite Knight</td><td>male</td><td>45</td><td></td></tr>
  <tr><td>2</td><td><a href="#">Evil Bob</a></td><td>Sorcerer</td><td>male</td><td>80</td><td></td></tr>
  <tr><td>3</td><td><a href="#">Broken Row</a></td><td>Druid</td><td>female</td><td>n/a</td><td></td></tr>
</table>
</body></html>`

	players, err := parseOnlinePlayers(strings.NewReader(fixture))
	require.NoError(t, err)

	// Unparsable rows are skipped, not fatal.
	require.Len(t, players, 2)
	assert.Equal(t, "Karius", players[0].Name)
	assert.Equal(t, 45, players[0].Level)
	assert.Equal(t, "Evil Bob", players[1].Name)
	assert.Equal(t, 80, players[1].Level)
}
