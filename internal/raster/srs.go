package raster

import (
	"fmt"
	"strings"
)

// Proj4 definitions for the CRS families the catalog's rasters use.
// A catalog-level proj4 override always wins over these.
var proj4ByEPSG = map[int]string{
	4326: "+proj=longlat +datum=WGS84 +no_defs",
	4269: "+proj=longlat +ellps=GRS80 +no_defs",
	4267: "+proj=longlat +ellps=clrk66 +no_defs",
	3857: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +no_defs",
	5070: "+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=23 +lon_0=-96 +x_0=0 +y_0=0 +ellps=GRS80 +units=m +no_defs",
}

// Proj4FromEPSG resolves an EPSG code to a proj4 definition. UTM zones
// (WGS84 326xx/327xx, NAD83 269xx) are generated; other codes come from
// the table above.
func Proj4FromEPSG(epsg int) (string, bool) {
	if p, ok := proj4ByEPSG[epsg]; ok {
		return p, true
	}
	switch {
	case epsg >= 32601 && epsg <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", epsg-32600), true
	case epsg >= 32701 && epsg <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", epsg-32700), true
	case epsg >= 26901 && epsg <= 26923:
		return fmt.Sprintf("+proj=utm +zone=%d +ellps=GRS80 +units=m +no_defs", epsg-26900), true
	}
	return "", false
}

// IsGeographic reports whether a proj4 definition describes unprojected
// longitude/latitude coordinates.
func IsGeographic(proj4 string) bool {
	return strings.Contains(proj4, "+proj=longlat")
}
