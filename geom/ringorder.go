package geom

// polygonArea returns the signed area of a ring of n vertices, each stored
// with stride dims floats starting at vx. Positive area means the ring
// winds counter-clockwise (in a standard XY right-handed plane).
func polygonArea(n int, vx []float64, dims int) float64 {
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := vx[i*dims], vx[i*dims+1]
		xj, yj := vx[j*dims], vx[j*dims+1]
		area += xi*yj - xj*yi
	}
	return area / 2
}

// orientCCW reports whether a ring's signed area indicates counter-clockwise
// winding.
func orientCCW(area float64) bool { return area > 0 }

// pointInPolygon reports whether (x, y) lies inside the ring of n vertices
// (stride dims) using the standard ray-casting test.
func pointInPolygon(x, y float64, n int, vx []float64, dims int) bool {
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := vx[i*dims], vx[i*dims+1]
		xj, yj := vx[j*dims], vx[j*dims+1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

type ringInfo struct {
	parent int // -1 if none
	area   float64
	bounds BBox
}

// FixRingOrderWKB reorders a polygon's parts and vertices into the order
// Well-Known Binary requires: each exterior ring is immediately followed by
// the interior rings it contains, exterior rings are counter-clockwise, and
// interior rings are clockwise.
//
// parts must include the trailing sentinel (len(parts) == numParts+1), with
// any Closed/ExteriorRing flag bits already masked out of the part-to-part
// boundaries (only PartOffsetMask bits are read). vx holds numParts' worth
// of ring vertices back to back, stride dims.
//
// This is a close port of original_source/lib/dba/AttribGeom.cpp's
// TFixRingOrderWKB: compute per-ring bbox + signed area, find each ring's
// largest containing parent, break two-cycles (rings that mutually contain
// each other, e.g. duplicate/touching rings), then emit top-level rings
// followed by their children, flipping vertex order as needed so exteriors
// are CCW and interiors are CW.
func FixRingOrderWKB(numParts int, parts []uint32, vx []float64, dims int) (newParts []uint32, newVx []float64) {
	rings := make([]ringInfo, numParts)
	for i := 0; i < numParts; i++ {
		start := int(parts[i] & PartOffsetMask)
		end := int(parts[i+1] & PartOffsetMask)
		b := emptyBBox()
		for j := start; j < end; j++ {
			b.expand(vx[j*dims], vx[j*dims+1])
		}
		rings[i] = ringInfo{
			parent: -1,
			area:   polygonArea(end-start, vx[start*dims:], dims),
			bounds: b,
		}
	}

	for i := 0; i < numParts; i++ {
		istart := int(parts[i] & PartOffsetMask)
		ix, iy := vx[istart*dims], vx[istart*dims+1]
		bestParent := -1
		bestArea := -1.0
		for j := 0; j < numParts; j++ {
			if i == j {
				continue
			}
			if !rings[j].bounds.Contains(rings[i].bounds) {
				continue
			}
			jstart := int(parts[j] & PartOffsetMask)
			jend := int(parts[j+1] & PartOffsetMask)
			if pointInPolygon(ix, iy, jend-jstart, vx[jstart*dims:], dims) {
				area := rings[j].area
				if area < 0 {
					area = -area
				}
				if area > bestArea {
					bestParent = j
					bestArea = area
				}
			}
		}
		rings[i].parent = bestParent
	}

	// Break two-cycles: rings that mutually claim each other as parent
	// (identical or touching rings confuse the point-in-polygon test).
	for i := 0; i < numParts; i++ {
		if rings[i].parent != -1 && rings[rings[i].parent].parent == i {
			rings[rings[i].parent].parent = -1
			rings[i].parent = -1
		}
	}

	newParts = make([]uint32, numParts+1)
	newVx = make([]float64, len(vx))
	outPartPos := 0
	outVxPos := 0

	rewrite := func(isTopLevel bool, part int) {
		start := int(parts[part] & PartOffsetMask)
		end := int(parts[part+1] & PartOffsetMask)
		length := end - start
		area := polygonArea(length, vx[start*dims:], dims)
		flags := uint32(outVxPos) | PartFlagClosed
		if isTopLevel {
			flags |= PartFlagExteriorRing
		}
		newParts[outPartPos] = flags
		outPartPos++

		// Top-level rings must be CCW; child rings must be CW.
		reverse := orientCCW(area) != isTopLevel
		if reverse {
			for i := 0; i < length; i++ {
				srcIdx := end - i - 1
				copy(newVx[outVxPos*dims:outVxPos*dims+dims], vx[srcIdx*dims:srcIdx*dims+dims])
				outVxPos++
			}
		} else {
			for i := 0; i < length; i++ {
				srcIdx := start + i
				copy(newVx[outVxPos*dims:outVxPos*dims+dims], vx[srcIdx*dims:srcIdx*dims+dims])
				outVxPos++
			}
		}
	}

	for i := 0; i < numParts; i++ {
		if rings[i].parent != -1 {
			continue
		}
		rewrite(true, i)
		for j := 0; j < numParts; j++ {
			if rings[j].parent == i {
				rewrite(false, j)
			}
		}
	}

	newParts[outPartPos] = uint32(outVxPos)
	return newParts, newVx
}
