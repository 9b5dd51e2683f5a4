package scraper

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tibiantis-tools/deathwatch/internal/models"
)

// deathsHeader marks the labeled region holding the recent death log.
const deathsHeader = "character deaths"

// CharacterPage is the parsed result of one character lookup: the attribute
// record plus the character's recent deaths in page order.
type CharacterPage struct {
	Character models.Character
	Deaths    []models.DeathEvent
}

// parseCharacterPage extracts the labeled attribute rows and the death log
// from a character page. Zero labeled rows means the name did not resolve.
// A missing deaths region means no recorded deaths, which is not an error.
func parseCharacterPage(r io.Reader) (*CharacterPage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	page := &CharacterPage{}
	labeled := 0

	for _, table := range findAll(doc, "table") {
		rows := findAll(table, "tr")
		if len(rows) == 0 {
			continue
		}

		if strings.Contains(strings.ToLower(nodeText(rows[0])), deathsHeader) {
			page.Deaths = append(page.Deaths, parseDeathRows(rows[1:])...)
			continue
		}

		for _, row := range rows {
			if !hasClass(row, "hover") {
				continue
			}
			cells := findAll(row, "td")
			if len(cells) < 2 {
				continue
			}
			label := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(nodeText(cells[0]))), ":")
			value := strings.TrimSpace(nodeText(cells[1]))
			if label == "" {
				continue
			}
			labeled++
			applyAttribute(&page.Character, label, value)
		}
	}

	if labeled == 0 {
		return nil, ErrCharacterNotFound
	}
	return page, nil
}

// applyAttribute maps one labeled row onto the character record. Labels
// that are not recognized are ignored so layout additions on the remote
// side do not break parsing.
func applyAttribute(c *models.Character, label, value string) {
	switch label {
	case "name":
		c.Name = value
	case "sex":
		c.Sex = &value
	case "vocation":
		c.Vocation = &value
	case "level":
		if level, err := strconv.Atoi(value); err == nil {
			c.Level = &level
		}
	case "world":
		c.World = &value
	case "residence":
		c.Residence = &value
	case "house":
		c.House = &value
	case "guild membership":
		c.GuildMembership = &value
	case "last login":
		c.LastLogin = ParseTimestamp(value)
	case "comment", "account status":
		// Recognized but not persisted.
	}
}

func parseDeathRows(rows []*html.Node) []models.DeathEvent {
	var deaths []models.DeathEvent
	for _, row := range rows {
		cells := findAll(row, "td")
		if len(cells) < 2 {
			continue
		}
		deaths = append(deaths, models.DeathEvent{
			Time:   ParseTimestamp(nodeText(cells[0])),
			Killer: strings.TrimSpace(nodeText(cells[1])),
		})
	}
	return deaths
}

// parseOnlinePlayers extracts {name, level} pairs from the public
// online-players table. Rows that do not parse are skipped.
func parseOnlinePlayers(r io.Reader) ([]models.OnlinePlayer, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var players []models.OnlinePlayer
	for _, table := range findAll(doc, "table") {
		if !hasClass(table, "mytab") {
			continue
		}
		for _, row := range findAll(table, "tr") {
			cells := findAll(row, "td")
			if len(cells) < 5 {
				continue
			}
			name := strings.TrimSpace(nodeText(cells[1]))
			level, err := strconv.Atoi(strings.TrimSpace(nodeText(cells[4])))
			if name == "" || err != nil {
				continue
			}
			players = append(players, models.OnlinePlayer{Name: name, Level: level})
		}
	}
	return players, nil
}

// findAll returns all descendant elements with the given tag, in document
// order.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return out
}

// nodeText concatenates the text content of a node's subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
