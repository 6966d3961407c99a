package mcpserver

// DatasetFormatContract describes the property dataset file that the server
// loads and that maintenance tools rewrite.
const DatasetFormatContract = `# Property Dataset Format

The dataset is a single UTF-8 JSON file holding an array of property objects.

## Property fields

| Field | Type | Required | Notes |
|---|---|---|---|
| id | string | yes | unique and stable; status relabeling is keyed on it |
| title | string | yes | display name |
| address | string | yes | free text; include the US state name or abbreviation |
| type | string | yes | Office, Industrial, Retail, Residential, Mixed-Use, ... |
| class | string | no | A, B or C |
| price | number | no | currency units; omit when unknown, do not send 0 |
| sqft | number | no | rentable square feet |
| status | string | yes | off-market, for-sale, trending or flagged |
| lat, lng | number | no | map position; markers are skipped without both |
| yearBuilt | integer | no | |
| occupancy | number | no | percent, 0-100 |
| trustScore | number | no | 0-100 |
| lastUpdated | string | no | ISO-8601 date |
| images | string[] | no | absolute image URLs |
| keyFeatures, risks, opportunities | string[] | no | short phrases |
| description | string | no | generated from the other fields when empty |

## Rules

1. The server may relabel ` + "`" + `status` + "`" + ` on load to match the configured mix
   (default 40% off-market, 30% for-sale, 20% trending, 10% flagged).
   Relabeling is deterministic per set of ids.
2. Write the file atomically (temp file, then rename). The server reloads on change.
3. A file that fails to decode is rejected and the previous snapshot stays active.

## Example

` + "```" + `json
[
  {
    "id": "dal-001",
    "title": "Commerce Street Tower",
    "address": "500 Commerce St, Dallas, Texas",
    "type": "Office",
    "class": "A",
    "price": 42000000,
    "status": "for-sale",
    "lat": 32.78,
    "lng": -96.80,
    "keyFeatures": ["LEED Gold", "Structured parking"]
  }
]
` + "```" + `
`
