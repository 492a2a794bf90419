package refactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolshed-labs/macrols/internal/protocol"
	"github.com/toolshed-labs/macrols/internal/xml"
)

func TestPlanExtraction(t *testing.T) {
	source := `<tool id="t" name="T">
    <description>d</description>
    <inputs>
        <param name="x" type="text"/>
    </inputs>
    <macros>
        <xml name="m">
            <citation type="doi">1</citation>
        </xml>
    </macros>
    <expand macro="m"/>
</tool>`
	doc, err := xml.Parse("file:///tool.xml", source)
	require.NoError(t, err)

	sel := func(line, start, end uint32) protocol.Range {
		return protocol.Range{
			Start: protocol.Position{Line: line, Character: start},
			End:   protocol.Position{Line: line, Character: end},
		}
	}

	t.Run("content element", func(t *testing.T) {
		m, ok := PlanExtraction(doc, sel(3, 8, 37))
		require.True(t, ok)
		assert.Equal(t, "param", m.Name)
		assert.Equal(t, `<param name="x" type="text"/>`, m.Content)
	})

	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		m, ok := PlanExtraction(doc, sel(3, 0, 37))
		require.True(t, ok)
		assert.Equal(t, `<param name="x" type="text"/>`, m.Content)
	})

	t.Run("expand reference is extractable", func(t *testing.T) {
		m, ok := PlanExtraction(doc, sel(10, 4, 23))
		require.True(t, ok)
		assert.Equal(t, "expand", m.Name)
	})

	t.Run("too short", func(t *testing.T) {
		_, ok := PlanExtraction(doc, sel(3, 8, 11))
		assert.False(t, ok)
	})

	t.Run("empty selection", func(t *testing.T) {
		_, ok := PlanExtraction(doc, sel(3, 8, 8))
		assert.False(t, ok)
	})

	t.Run("plain text", func(t *testing.T) {
		// "description" without the surrounding tags
		_, ok := PlanExtraction(doc, sel(1, 17, 18))
		assert.False(t, ok)
	})

	t.Run("not tag delimited", func(t *testing.T) {
		// starts inside the open tag
		_, ok := PlanExtraction(doc, sel(3, 9, 37))
		assert.False(t, ok)
	})

	t.Run("unterminated fragment", func(t *testing.T) {
		// covers <param ...> plus the closing </inputs> line start
		_, ok := PlanExtraction(doc, protocol.Range{
			Start: protocol.Position{Line: 2, Character: 4},
			End:   protocol.Position{Line: 3, Character: 37},
		})
		assert.False(t, ok)
	})

	t.Run("macro definition is not extractable", func(t *testing.T) {
		_, ok := PlanExtraction(doc, protocol.Range{
			Start: protocol.Position{Line: 6, Character: 8},
			End:   protocol.Position{Line: 8, Character: 14},
		})
		assert.False(t, ok)
	})

	t.Run("macros container is not extractable", func(t *testing.T) {
		_, ok := PlanExtraction(doc, protocol.Range{
			Start: protocol.Position{Line: 5, Character: 4},
			End:   protocol.Position{Line: 9, Character: 13},
		})
		assert.False(t, ok)
	})

	t.Run("tool root is not extractable", func(t *testing.T) {
		_, ok := PlanExtraction(doc, protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 11, Character: 7},
		})
		assert.False(t, ok)
	})
}
