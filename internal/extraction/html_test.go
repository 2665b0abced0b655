package extraction

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wishlistPage = `<!doctype html>
<html>
<head>
  <title>My List</title>
  <style>.x { color: red }</style>
  <script type="application/ld+json">
  {"@context":"https://schema.org","@type":"ItemList","itemListElement":[
    {"@type":"ListItem","position":1,"item":{"@type":"Product","name":"Desk Lamp",
      "image":["/img/lamp.jpg"],"url":"/p/lamp",
      "offers":{"@type":"Offer","price":"39.99","priceCurrency":"USD"}}},
    {"@type":"ListItem","position":2,"item":{"@type":"Product","name":"Mug",
      "offers":[{"@type":"Offer","price":12,"priceCurrency":"usd"}]}}
  ]}
  </script>
</head>
<body>
  <!-- tracking pixel -->
  <header><nav><a href="/">Home</a></nav></header>
  <div class="item" data-id="1" style="margin:0">
    <a href="/p/lamp" onclick="track()">Desk   Lamp</a>
    <img src="/img/lamp.jpg" alt="Desk Lamp" srcset="a 1x, b 2x">
    <span class="price">$39.99</span>
  </div>
  <script>window.evil = true;</script>
  <footer>Copyright</footer>
</body>
</html>`

func TestParsePage_CleansMarkup(t *testing.T) {
	page, err := ParsePage(wishlistPage, DefaultMaxInputChars)
	require.NoError(t, err)

	assert.Contains(t, page.Content, `<a href="/p/lamp">Desk Lamp</a>`)
	assert.Contains(t, page.Content, `<img src="/img/lamp.jpg" alt="Desk Lamp"/>`)
	assert.Contains(t, page.Content, "$39.99")

	for _, gone := range []string{"window.evil", "color: red", "tracking pixel", "Copyright", "Home", "onclick", "class=", "style=", "srcset"} {
		assert.NotContains(t, page.Content, gone)
	}
	assert.NotContains(t, page.Content, "\n")
}

func TestParsePage_CollectsJSONLDProducts(t *testing.T) {
	page, err := ParsePage(wishlistPage, DefaultMaxInputChars)
	require.NoError(t, err)

	require.Len(t, page.Products, 2)
	assert.Equal(t, "Desk Lamp", page.Products[0]["name"])
	assert.Equal(t, "Mug", page.Products[1]["name"])
}

func TestParsePage_IgnoresBrokenJSONLD(t *testing.T) {
	page, err := ParsePage(`<html><head><script type="application/ld+json">{broken</script></head><body>x</body></html>`, 100)
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Equal(t, "x", page.Content)
}

func TestParsePage_Truncates(t *testing.T) {
	page, err := ParsePage("<p>"+strings.Repeat("é", 50)+"</p>", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, utf8.RuneCountInString(page.Content))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "hi", Truncate("hi", 4))
	assert.Equal(t, "hi", Truncate("hi", 0))
}

func TestCollectProducts_Graph(t *testing.T) {
	v := map[string]any{
		"@graph": []any{
			map[string]any{"@type": "WebPage"},
			map[string]any{"@type": []any{"Thing", "Product"}, "name": "Chair"},
		},
	}
	got := collectProducts(v)
	require.Len(t, got, 1)
	assert.Equal(t, "Chair", got[0]["name"])
}
