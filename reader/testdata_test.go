package reader

const roadsGeoJSON = `{
  "type": "FeatureCollection",
  "name": "roads",
  "features": [
    {"type": "Feature", "properties": {"highway": "primary"},
     "geometry": {"type": "LineString", "coordinates": [[-0.1, 51.5], [-0.2, 51.6], [-0.3, 51.7]]}},
    {"type": "Feature", "properties": {"highway": "service"},
     "geometry": {"type": "MultiLineString", "coordinates": [
        [[1.0, 2.0], [1.5, 2.5]],
        [[3.0, 4.0], [3.5, 4.5], [4.0, 5.0]]
     ]}},
    {"type": "Feature", "properties": {"name": "no geometry"}, "geometry": null},
    {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [9.0, 9.0]}}
  ]
}`
